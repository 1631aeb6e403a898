package internal

import (
	"github.com/kcmvp/archunit"
	"testing"
)

func TestArchitecture(t *testing.T) {
	domain := archunit.Packages("domain", []string{".../internal/domain/..."})
	ports := archunit.Packages("ports", []string{".../internal/ports"})
	adapters := archunit.Packages("adapters", []string{".../internal/adapters/..."})
	settings := archunit.Packages("config", []string{".../internal/config"})

	// Rule 1: Domain should not depend on adapters
	if err := domain.ShouldNotReferLayers(adapters); err != nil {
		t.Errorf("Architecture violation: Domain depends on Adapters: %v", err)
	}

	// Rule 2: Ports describe the boundary and know no implementation
	if err := ports.ShouldNotReferLayers(adapters); err != nil {
		t.Errorf("Architecture violation: Ports depend on Adapters: %v", err)
	}

	// Rule 3: Runtime settings are wired in main only
	if err := domain.ShouldNotReferLayers(settings); err != nil {
		t.Errorf("Architecture violation: Domain depends on Config: %v", err)
	}
	if err := adapters.ShouldNotReferLayers(settings); err != nil {
		t.Errorf("Architecture violation: Adapters depend on Config: %v", err)
	}
}

func TestPackages(t *testing.T) {
	for _, pkg := range []string{".../internal/domain/translator", ".../internal/domain/color"} {
		if len(archunit.Packages(pkg, []string{pkg}).Packages()) == 0 {
			t.Errorf("No package found for %s", pkg)
		}
	}
}
