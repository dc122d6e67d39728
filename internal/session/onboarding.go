package session

import "github.com/timkeo/timkeo-client/internal/localstore"

// Onboarding tracks the one-time first-run flow.
type Onboarding struct {
	local *localstore.Store
}

func NewOnboarding(local *localstore.Store) *Onboarding {
	return &Onboarding{local: local}
}

func (o *Onboarding) Completed() bool {
	return o.local.GetBool(localstore.KeyOnboardingCompleted)
}

func (o *Onboarding) Complete() error {
	return o.local.SetBool(localstore.KeyOnboardingCompleted, true)
}
