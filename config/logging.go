package config

import "go.uber.org/zap"

// setLogger picks the zap profile for the given environment. Anything that is not
// production or development gets the example logger used for local runs.
func setLogger(env string) (*zap.Logger, error) {
	switch env {
	case "production":
		return zap.NewProduction()
	case "development":
		return zap.NewDevelopment()
	default:
		return zap.NewExample(), nil
	}
}
