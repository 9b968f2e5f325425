package plugins

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sepehrmoghiseh/musifyyy/bot"
	"github.com/sepehrmoghiseh/musifyyy/bot/config"
	"github.com/sepehrmoghiseh/musifyyy/bot/extractor"
	"github.com/sepehrmoghiseh/musifyyy/bot/platform"
)

// Env carries the shared dependencies a plugin factory may use.
type Env struct {
	Config *config.Config
	Logger bot.Logger
	Engine extractor.Engine
	// CookieFile is the resolved cookie jar, empty when none was found.
	CookieFile string
}

// Contribution describes the components a plugin can provide.
type Contribution struct {
	Platform platform.Platform
}

// Factory creates a plugin contribution.
type Factory func(env Env) (*Contribution, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register registers a plugin factory by name.
func Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("plugin name required")
	}
	if factory == nil {
		return fmt.Errorf("plugin factory required")
	}
	mu.Lock()
	defer mu.Unlock()
	if _, exists := factories[name]; exists {
		return fmt.Errorf("plugin %s already registered", name)
	}
	factories[name] = factory
	return nil
}

// Get returns a registered factory by name.
func Get(name string) (Factory, bool) {
	mu.RLock()
	defer mu.RUnlock()
	factory, ok := factories[name]
	return factory, ok
}

// Names returns all registered plugin names.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	nameList := make([]string, 0, len(factories))
	for name := range factories {
		nameList = append(nameList, name)
	}
	sort.Strings(nameList)
	return nameList
}
