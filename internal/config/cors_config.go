package config

type Cors struct{}

var _ CorsConfig = Cors{}

// GetAllowedOrigin returns the single origin allowed to call the API with
// credentials: the application's own public URL.
func (Cors) GetAllowedOrigin() string {
	return EnvVars{}.GetAppURL()
}

func (Cors) GetAllowedMethods() string {
	return GetEnv("CORS_ALLOWED_METHODS", "GET, POST, DELETE, OPTIONS")
}

func (Cors) GetAllowedHeaders() string {
	return GetEnv("CORS_ALLOWED_HEADERS", "Content-Type, Authorization")
}
