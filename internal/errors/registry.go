package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Runtime errors (E100-E500)
	"E100": {
		Category: CategoryRender,
		Message:  "Render failed",
	},
	"E200": {
		Category: CategoryValidation,
		Message:  "Build failed",
	},
	"E300": {
		Category: CategoryDelivery,
		Message:  "Message delivery failed",
	},
	"E400": {
		Category: CategoryHandler,
		Message:  "Event handler failed",
	},
	"E500": {
		Category: CategoryStartup,
		Message:  "Startup failed",
	},

	// Configuration errors (E120-E139)
	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid tau configuration",
		Detail:   "The configuration file could not be parsed.",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Missing required configuration",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},

	// CLI errors (E140-E159)
	"E141": {
		Category: CategoryCLI,
		Message:  "Not a tau project",
		Detail:   "No tau.json, tau.yaml or tau.yml was found in this directory or its parents.",
	},
	"E142": {
		Category: CategoryCLI,
		Message:  "Go not found",
		Detail:   "The go command is required to build and validate the app.",
	},
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
