package gifts

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/StardewEchoes/echoes/internal/hostinterfaces"
	"github.com/dop251/goja"
	"github.com/pkg/errors"
)

const filterFunc = `giftable`

// Filter runs a modder-supplied script that can refuse items Giftable
// accepts. The script must define:
//
//	function giftable(item, characterId) { return true; }
//
// item carries name, category, quality and tool.
type Filter struct {
	lock    sync.Mutex
	name    string
	vm      *goja.Runtime
	fn      goja.Callable
	timeout time.Duration
}

// LoadFilter compiles the script file at path.
func LoadFilter(path string, timeout time.Duration) (*Filter, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, `reading gift filter`)
	}
	return CompileFilter(path, string(src), timeout)
}

func CompileFilter(name, src string, timeout time.Duration) (*Filter, error) {
	vm := goja.New()

	if _, err := vm.RunScript(name, src); err != nil {
		return nil, errors.Wrapf(err, `compiling gift filter %s`, name)
	}

	fn, ok := goja.AssertFunction(vm.Get(filterFunc))
	if !ok {
		return nil, errors.Errorf(`gift filter %s does not define %s(item, characterId)`, name, filterFunc)
	}

	return &Filter{name: name, vm: vm, fn: fn, timeout: timeout}, nil
}

// Allows reports whether the script lets characterId be given item. A nil
// Filter allows everything. When the script throws or runs past its timeout
// the item is allowed and the error returned for logging.
func (f *Filter) Allows(characterId string, item hostinterfaces.Item) (bool, error) {
	if f == nil {
		return true, nil
	}

	f.lock.Lock()
	defer f.lock.Unlock()

	if f.timeout > 0 {
		timer := time.AfterFunc(f.timeout, func() {
			f.vm.Interrupt(`gift filter timed out`)
		})
		defer func() {
			timer.Stop()
			f.vm.ClearInterrupt()
		}()
	}

	args := map[string]any{
		`name`:     strings.TrimSpace(item.Name),
		`category`: item.Category,
		`quality`:  item.Quality,
		`tool`:     item.IsTool,
	}

	result, err := f.fn(goja.Undefined(), f.vm.ToValue(args), f.vm.ToValue(characterId))
	if err != nil {
		return true, errors.Wrapf(err, `running gift filter %s`, f.name)
	}
	return result.ToBoolean(), nil
}
