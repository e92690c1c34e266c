package registry

import "fmt"

// Identity names one extension.
type Identity struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

func (i Identity) String() string {
	if i.Version == "" {
		return i.Name
	}
	return i.Name + "@" + i.Version
}

func (i Identity) validate() error {
	if i.Name == "" {
		return fmt.Errorf("extension name is empty")
	}
	return nil
}

// Registration is the record of one registered extension.
type Registration struct {
	Extension Identity
	Types     []string
}
