package storage

import "StakeHouse/internal/model"

// Noop keeps nothing; used when persistence is disabled.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (n *Noop) Load() (*model.State, error) { return &model.State{}, nil }
func (n *Noop) Save(_ *model.State) error   { return nil }
func (n *Noop) Close() error                { return nil }
