package config

import "sync"

// Provider supplies the current settings. It is injected into the runner
// and the dispatcher at construction time so tests can pin a Config
// without touching files.
type Provider interface {
	Config() *Config
}

// Static is a Provider returning a fixed Config.
type Static struct {
	C *Config
}

// Config implements Provider.
func (s Static) Config() *Config {
	if s.C == nil {
		return &Config{}
	}
	return s.C
}

// FileProvider reloads the settings file on demand.
type FileProvider struct {
	mu     sync.RWMutex
	dir    string
	path   string // explicit settings file; empty means discover from dir
	loaded *LoadResult
}

// NewFileProvider loads settings for dir, or from path when it is non-empty.
func NewFileProvider(dir, path string) (*FileProvider, error) {
	p := &FileProvider{dir: dir, path: path}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload re-reads the settings file.
func (p *FileProvider) Reload() error {
	p.mu.RLock()
	dir, path := p.dir, p.path
	p.mu.RUnlock()
	return p.load(dir, path)
}

// Retarget switches to dir, discarding any explicit settings path, and
// reloads. On error the previous settings stay in effect.
func (p *FileProvider) Retarget(dir string) error {
	return p.load(dir, "")
}

func (p *FileProvider) load(dir, path string) error {
	var (
		res *LoadResult
		err error
	)
	if path != "" {
		root := dir
		if discovered, ferr := findProjectRoot(dir); ferr == nil {
			root = discovered
		}
		res, err = LoadFile(path, root)
	} else {
		res, err = Load(dir)
	}
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.dir, p.path = dir, path
	p.loaded = res
	p.mu.Unlock()
	return nil
}

// Config implements Provider.
func (p *FileProvider) Config() *Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loaded.Config
}

// Path returns the settings file in use, or "" when running on defaults.
func (p *FileProvider) Path() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loaded.Path
}

// ProjectRoot returns the discovered project root.
func (p *FileProvider) ProjectRoot() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loaded.ProjectRoot
}
