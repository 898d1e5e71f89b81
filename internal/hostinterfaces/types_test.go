package hostinterfaces

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHearts(t *testing.T) {
	require.Equal(t, 0, Hearts(-40))
	require.Equal(t, 0, Hearts(0))
	require.Equal(t, 0, Hearts(249))
	require.Equal(t, 1, Hearts(250))
	require.Equal(t, 3, Hearts(999))
}

func TestTileDistance(t *testing.T) {
	a := Tile{X: 10, Y: 4}
	require.Equal(t, 0, a.Distance(a))
	require.Equal(t, 5, a.Distance(Tile{X: 7, Y: 6}))
	require.Equal(t, 5, Tile{X: 7, Y: 6}.Distance(a))
}

func TestWeather(t *testing.T) {
	require.Equal(t, WeatherStorm, WeatherFromFlags(true, true, false, false))
	require.Equal(t, WeatherRain, WeatherFromFlags(true, false, true, false))
	require.Equal(t, WeatherSnow, WeatherFromFlags(false, false, true, true))
	require.Equal(t, WeatherWind, WeatherFromFlags(false, false, false, true))
	require.Equal(t, WeatherSun, WeatherFromFlags(false, true, false, false))

	require.Equal(t, WeatherRain, ParseWeather("raining"))
	require.Equal(t, WeatherStorm, ParseWeather(" Storm "))
	require.Equal(t, WeatherSun, ParseWeather("fog"))
}

func TestHostValidate(t *testing.T) {
	require.Error(t, Host{}.Validate())
}
