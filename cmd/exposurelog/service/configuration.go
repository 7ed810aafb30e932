package service

// Configuration is the read-only view of the service settings
type Configuration struct {
	SiteID     string `json:"site_id"`
	ButlerURI1 string `json:"butler_uri_1"`
	ButlerURI2 string `json:"butler_uri_2"`
	ButlerURI3 string `json:"butler_uri_3"`
}

// ConfigurationService reports the site id and registry URIs.
type ConfigurationService struct {
	config Configuration
}

// NewConfigurationService captures siteID and the registry URIs in search order
func NewConfigurationService(siteID string, registryURIs []string) *ConfigurationService {
	uris := make([]string, MaxRegistries)
	copy(uris, registryURIs)
	return &ConfigurationService{
		config: Configuration{
			SiteID:     siteID,
			ButlerURI1: uris[0],
			ButlerURI2: uris[1],
			ButlerURI3: uris[2],
		},
	}
}

// Get returns the configuration
func (s *ConfigurationService) Get() Configuration {
	return s.config
}
