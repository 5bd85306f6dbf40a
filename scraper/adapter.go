package scraper

import (
	"fmt"
	"sort"
)

// Provider identities.
const (
	ProviderCQU    = "cqu"
	ProviderWakeUp = "wakeup"
	ProviderHNVCC  = "hnvcc"
)

// Adapter walks one provider's native payload and produces fragments.
type Adapter interface {
	Provider() string
	Fragments(payload Payload) (*Fragments, error)
}

var adapters = map[string]Adapter{
	ProviderCQU:    CQU{},
	ProviderWakeUp: WakeUp{},
	ProviderHNVCC:  HNVCC{},
}

// Lookup returns the adapter registered for a provider.
func Lookup(provider string) (Adapter, error) {
	adapter, ok := adapters[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
	return adapter, nil
}

// Providers lists the registered provider names in order.
func Providers() []string {
	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
