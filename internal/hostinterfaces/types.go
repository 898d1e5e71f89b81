package hostinterfaces

import "strings"

const PointsPerHeart = 250

// Hearts converts friendship points to whole hearts.
func Hearts(points int) int {
	if points <= 0 {
		return 0
	}
	return points / PointsPerHeart
}

type Tile struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Distance is the Manhattan distance in tiles.
func (t Tile) Distance(other Tile) int {
	dx := t.X - other.X
	if dx < 0 {
		dx = -dx
	}
	dy := t.Y - other.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

type CharacterInfo struct {
	Id                  string `json:"id" yaml:"id"`
	Name                string `json:"name" yaml:"name"`
	Location            string `json:"location" yaml:"location"`
	Tile                Tile   `json:"tile" yaml:"tile"`
	IsVillager          bool   `json:"is_villager" yaml:"villager"`
	IsMonster           bool   `json:"is_monster" yaml:"monster"`
	IsInvisible         bool   `json:"is_invisible" yaml:"invisible"`
	IsBirthday          bool   `json:"is_birthday" yaml:"birthday"`
	IsMarriageCandidate bool   `json:"is_marriage_candidate" yaml:"marriagecandidate"`
}

// Conversational reports whether the character is the kind of entity the
// gate suppresses input for. It says nothing about distance or location.
func (c CharacterInfo) Conversational() bool {
	return c.IsVillager && !c.IsMonster
}

type PlayerInfo struct {
	Id       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Location string `json:"location" yaml:"location"`
	Tile     Tile   `json:"tile" yaml:"tile"`
	Spouse   string `json:"spouse" yaml:"spouse"` // character id, empty if unmarried
}

type Calendar struct {
	Season     string `json:"season" yaml:"season"`
	DayOfMonth int    `json:"day_of_month" yaml:"dayofmonth"`
	DayOfWeek  int    `json:"day_of_week" yaml:"dayofweek"` // 0-6
	TimeOfDay  int    `json:"time_of_day" yaml:"timeofday"` // HHMM
	Year       int    `json:"year" yaml:"year"`
}

type Weather string

const (
	WeatherSun   Weather = `Sun`
	WeatherRain  Weather = `Rain`
	WeatherStorm Weather = `Storm`
	WeatherSnow  Weather = `Snow`
	WeatherWind  Weather = `Wind`
)

// ParseWeather maps loose host values onto the wire enum. Unknown is Sun.
func ParseWeather(s string) Weather {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case `rain`, `raining`:
		return WeatherRain
	case `storm`, `lightning`:
		return WeatherStorm
	case `snow`, `snowing`:
		return WeatherSnow
	case `wind`, `debris`:
		return WeatherWind
	}
	return WeatherSun
}

// WeatherFromFlags follows the host's flag precedence: rain with lightning
// is a storm, then rain, snow, debris wind, otherwise sun.
func WeatherFromFlags(raining, lightning, snowing, debris bool) Weather {
	if raining {
		if lightning {
			return WeatherStorm
		}
		return WeatherRain
	}
	if snowing {
		return WeatherSnow
	}
	if debris {
		return WeatherWind
	}
	return WeatherSun
}

type Item struct {
	Ref      string `json:"ref" yaml:"ref"` // host handle for the stack/slot
	Name     string `json:"name" yaml:"name"`
	Category string `json:"category" yaml:"category"`
	Quality  int    `json:"quality" yaml:"quality"` // 0 normal, 1 silver, 2 gold, 3 iridium
	IsTool   bool   `json:"is_tool" yaml:"tool"`
}

type GiftCounters struct {
	Today    int `json:"today" yaml:"today"`
	ThisWeek int `json:"this_week" yaml:"thisweek"`
}

type Choice struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}
