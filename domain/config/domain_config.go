package config

// DomainConfig holds the configurable limits of the comparison engine
type DomainConfig struct {
	// Snapshot constraints
	MaxNodesPerSnapshot int
	MaxLinksPerSnapshot int

	// Evolution constraints
	MaxVersions      int
	EvolutionWorkers int

	// Merge defaults
	DefaultMergeStrategy string

	// Listing
	DefaultPageSize int
	MaxPageSize     int
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxNodesPerSnapshot: 50000,
		MaxLinksPerSnapshot: 200000,

		MaxVersions:      100,
		EvolutionWorkers: 4,

		DefaultMergeStrategy: "union",

		DefaultPageSize: 20,
		MaxPageSize:     100,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// Tighter limits behind API Gateway payload caps
	config.MaxNodesPerSnapshot = 20000
	config.MaxLinksPerSnapshot = 80000
	config.MaxVersions = 50

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	config.MaxNodesPerSnapshot = 500000
	config.MaxLinksPerSnapshot = 2000000
	config.MaxVersions = 1000

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	switch {
	case c.MaxNodesPerSnapshot <= 0 || c.MaxLinksPerSnapshot <= 0:
		return errInvalid("snapshot limits must be positive")
	case c.MaxVersions < 2:
		return errInvalid("max versions must allow at least two versions")
	case c.EvolutionWorkers <= 0:
		return errInvalid("evolution workers must be positive")
	case c.DefaultPageSize <= 0 || c.DefaultPageSize > c.MaxPageSize:
		return errInvalid("default page size must be within (0, max page size]")
	}
	return nil
}

type configError string

func (e configError) Error() string { return "domain config: " + string(e) }

func errInvalid(msg string) error { return configError(msg) }
