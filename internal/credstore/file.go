package credstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileStore keeps credentials in a YAML file keyed by context name, so a
// credential survives process restarts. The file is written with mode 0600.
//
//	contexts:
//	  default:
//	    auth_token: eyJ...
type FileStore struct {
	mu      sync.Mutex
	path    string
	context string
}

type credentialsFile struct {
	Contexts map[string]map[string]string `yaml:"contexts"`
}

// DefaultPath returns $XDG_CONFIG_HOME/taskpulse/credentials.yaml (or the
// platform equivalent).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "taskpulse", "credentials.yaml"), nil
}

// NewFileStore creates a file-backed store. An empty context name selects DefaultContext.
func NewFileStore(path, contextName string) *FileStore {
	if contextName == "" {
		contextName = DefaultContext
	}
	return &FileStore{path: path, context: contextName}
}

func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Store(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.load()
	if err != nil {
		return err
	}
	slot := doc.Contexts[f.context]
	if slot == nil {
		slot = map[string]string{}
		doc.Contexts[f.context] = slot
	}
	slot[TokenKey] = token
	return f.save(doc)
}

func (f *FileStore) Retrieve(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.load()
	if err != nil {
		return "", err
	}
	return doc.Contexts[f.context][TokenKey], nil
}

func (f *FileStore) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.load()
	if err != nil {
		return err
	}
	slot, ok := doc.Contexts[f.context]
	if !ok {
		return nil
	}
	if _, ok := slot[TokenKey]; !ok {
		return nil
	}
	delete(slot, TokenKey)
	if len(slot) == 0 {
		delete(doc.Contexts, f.context)
	}
	return f.save(doc)
}

func (f *FileStore) load() (*credentialsFile, error) {
	doc := &credentialsFile{}
	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			doc.Contexts = map[string]map[string]string{}
			return doc, nil
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	if err := yaml.Unmarshal(b, doc); err != nil {
		return nil, fmt.Errorf("parse credentials %s: %w", f.path, err)
	}
	if doc.Contexts == nil {
		doc.Contexts = map[string]map[string]string{}
	}
	return doc, nil
}

// save writes through a temp file and rename so readers never see a partial file.
func (f *FileStore) save(doc *credentialsFile) error {
	b, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".credentials-*.yaml")
	if err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}
