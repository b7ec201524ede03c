package core

import "mamos/internal/deploy"

// MissingSecret is a deploy environment whose API key secret is unset.
type MissingSecret struct {
	Environment string
	Secret      string
}

// Validate checks that name is configured and reports every declared
// deploy environment whose secret lookup comes back empty. Missing secrets
// are warnings; only an unknown project is an error.
func Validate(cfg *Config, name string, lookup deploy.SecretLookup) ([]MissingSecret, error) {
	p, err := cfg.Project(name)
	if err != nil {
		return nil, err
	}
	var missing []MissingSecret
	for _, env := range p.Deploy {
		if v, ok := lookup(env.APIKeySecret); !ok || v == "" {
			missing = append(missing, MissingSecret{Environment: env.Name, Secret: env.APIKeySecret})
		}
	}
	return missing, nil
}
