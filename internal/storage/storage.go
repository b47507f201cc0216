// Package storage persists the household state snapshot.
package storage

import "StakeHouse/internal/model"

// Persister loads and saves the whole state. Save must be atomic: either the
// full snapshot is written or the previous one stays intact.
type Persister interface {
	Load() (*model.State, error)
	Save(state *model.State) error
	Close() error
}

// Open returns the persister for driver.
func Open(driver, sqlitePath, stateFile string) (Persister, error) {
	switch driver {
	case "sqlite":
		s, err := NewSQLite(sqlitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "json":
		return NewJSONFile(stateFile), nil
	default:
		return NewNoop(), nil
	}
}
