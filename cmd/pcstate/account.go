package main

import (
	"sync"

	"github.com/atlanticdynamic/pcstate/internal/model"
)

const (
	accountOwner = iota
	accountBalance
	accountTags
)

var accountClass = model.NewClass(
	"Account",
	func() model.Instance { return &account{} },
	model.FieldOf[string]("owner"),
	model.FieldOf[int]("balance"),
	model.FieldOf[*model.TrackedSlice[string]]("tags"),
)

// account is the managed class the demo command works with.
type account struct {
	mu      sync.Mutex
	owner   string
	balance int
	tags    *model.TrackedSlice[string]
}

func newAccount(owner string, balance int, tags ...string) *account {
	return &account{
		owner:   owner,
		balance: balance,
		tags:    model.NewTrackedSlice(tags...),
	}
}

func (a *account) Class() *model.Class {
	return accountClass
}

func (a *account) ProvideField(i int) any {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch i {
	case accountOwner:
		return a.owner
	case accountBalance:
		return a.balance
	case accountTags:
		return a.tags
	default:
		return nil
	}
}

func (a *account) ReplaceField(i int, v any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch i {
	case accountOwner:
		a.owner, _ = v.(string)
	case accountBalance:
		a.balance, _ = v.(int)
	case accountTags:
		a.tags, _ = v.(*model.TrackedSlice[string])
	}
}
