package config

const (
	HCType              = "Content-Type"
	HAPIKey             = "x-api-key"
	HAdminToken         = "x-admin-token"
	HCacheControl       = "Cache-Control"
	HContentTypeOptions = "X-Content-Type-Options"

	CTypeJSON = "application/json"
)
