package authz

import "github.com/ixado-dev/ixado/pkg/settings"

// SettingsLoader adapts settings.Load to the PolicyLoader interface.
type SettingsLoader struct {
	LocalSettingsFilePath string
	GlobalPathResolver    settings.GlobalPathResolver
}

func (s SettingsLoader) Load() (settings.Loaded, error) {
	resolver := s.GlobalPathResolver
	if resolver == nil {
		resolver = settings.EnvGlobalPathResolver{}
	}
	return settings.Load(s.LocalSettingsFilePath, resolver)
}
