package config

import (
	"fmt"
	"log"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

const configFile = "~/.config/cheru/config.toml"

const defaultConfig = `# cheru launcher configuration
# Hotkey to toggle the launcher window (consumed by the UI layer)
# Examples: "Alt+Space", "Cmd+D", "Ctrl+Space"
hotkey = "Alt+Space"

# Extra directories for the folder and image indices
extra_roots = []

# Extra exclude globs for the filesystem walk
exclude = []
`

var (
	globalConfig *config
	once         sync.Once
)

type config struct {
	static  env
	dynamic file
	watcher *fsnotify.Watcher
}

type (
	env struct {
		UnixSocket string `envconfig:"CHERU_SOCK"`
		ListLimit  int    `envconfig:"CHERU_LIST_LIMIT" default:"128"`
		Warmup     bool   `envconfig:"CHERU_WARMUP"`
	}
	file struct {
		sync.RWMutex
		Hotkey     string   `toml:"hotkey"`
		ExtraRoots []string `toml:"extra_roots"`
		Exclude    []string `toml:"exclude"`
	}
)

// Init initializes and loads configuration.
func Init() error {
	var err error
	once.Do(func() {
		globalConfig = &config{}

		if err = envconfig.Process("", &globalConfig.static); err != nil {
			return
		}

		if globalConfig.static.UnixSocket == "" {
			currentUser, uerr := user.Current()
			if uerr != nil {
				err = uerr
				return
			}
			globalConfig.static.UnixSocket = fmt.Sprintf("/tmp/cheru-%s/indexd", currentUser.Uid)
		}
		globalConfig.static.UnixSocket = expandPath(globalConfig.static.UnixSocket)

		if err = globalConfig.loadFile(); err != nil {
			return
		}
		if err = globalConfig.setupWatcher(); err != nil {
			return
		}
	})
	return err
}

// Run starts the configuration watcher loop.
func Run() error {
	if globalConfig == nil {
		if err := Init(); err != nil {
			return err
		}
	}
	go globalConfig.watchLoop()
	return nil
}

// Get returns the global config instance.
func Get() *config {
	if globalConfig == nil {
		Init()
	}
	return globalConfig
}

// loadFile reads the TOML config, writing a commented default file first
// when none exists.
func (c *config) loadFile() error {
	path := expandPath(configFile)

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if werr := os.WriteFile(path, []byte(defaultConfig), 0640); werr != nil {
				return werr
			}
			data = []byte(defaultConfig)
		} else {
			return err
		}
	}

	var parsed struct {
		Hotkey     string   `toml:"hotkey"`
		ExtraRoots []string `toml:"extra_roots"`
		Exclude    []string `toml:"exclude"`
	}
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("invalid config at %s: %w", path, err)
	}
	if parsed.Hotkey == "" {
		parsed.Hotkey = "Alt+Space"
	}

	c.dynamic.Lock()
	defer c.dynamic.Unlock()
	c.dynamic.Hotkey = parsed.Hotkey
	c.dynamic.ExtraRoots = parsed.ExtraRoots
	c.dynamic.Exclude = parsed.Exclude
	return nil
}

func (c *config) setupWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	c.watcher = watcher
	return watcher.Add(filepath.Dir(expandPath(configFile)))
}

func (c *config) watchLoop() {
	path := expandPath(configFile)
	for {
		select {
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if event.Name == path && (event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create) {
				if err := c.loadFile(); err != nil {
					log.Printf("[ERROR] Reloading config: %v", err)
				}
			}
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[ERROR] Config watcher: %v", err)
		}
	}
}

// UnixSocket returns the Unix socket path.
func (c *config) UnixSocket() string {
	return c.static.UnixSocket
}

// ListLimit returns the configured protocol list limit.
func (c *config) ListLimit() int {
	if c.static.ListLimit <= 0 {
		return 128
	}
	return c.static.ListLimit
}

// Warmup reports whether the folder and image indices are built eagerly at
// startup instead of on first query.
func (c *config) Warmup() bool {
	return c.static.Warmup
}

// Hotkey returns the configured launcher hotkey; the daemon only passes it
// through to the UI layer.
func (c *config) Hotkey() string {
	c.dynamic.RLock()
	defer c.dynamic.RUnlock()
	return c.dynamic.Hotkey
}

// ExtraRoots returns additional, tilde-expanded directories for the folder
// and image indices.
func (c *config) ExtraRoots() []string {
	c.dynamic.RLock()
	defer c.dynamic.RUnlock()
	roots := make([]string, 0, len(c.dynamic.ExtraRoots))
	for _, r := range c.dynamic.ExtraRoots {
		roots = append(roots, expandPath(r))
	}
	return roots
}

// Exclude returns extra exclude globs for the filesystem walk.
func (c *config) Exclude() []string {
	c.dynamic.RLock()
	defer c.dynamic.RUnlock()
	return append([]string{}, c.dynamic.Exclude...)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return strings.Replace(path, "~", home, 1)
	}
	return path
}
