package resource

import (
	"fmt"
	"os"

	"hotcache/internal/common"
	"hotcache/internal/store"
)

// Env is the value of an environment variable named by a logical key. It is
// read once; logical resources never reload.
type Env[C any] struct {
	Name  string
	Value string
	Set   bool
}

// Load looks up the variable. Path keys are rejected.
func (e *Env[C]) Load(key store.Key, _ *store.Store[C], _ C) error {
	if !key.IsLogical() {
		return unsupported("env", key)
	}
	if key.Value() == "" {
		return fmt.Errorf("%w: env resource needs a variable name", common.ErrInvalidKey)
	}
	e.Name = key.Value()
	e.Value, e.Set = os.LookupEnv(e.Name)
	return nil
}
