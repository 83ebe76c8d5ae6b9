package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Property model (E101-E199)

	"E101": {
		Category: CategoryProperty,
		Message:  "Unknown property",
		Detail:   "The requested name is not a registered property of the object's type or instance registry.",
		DocURL:   "https://cuekit.dev/docs/errors/E101",
	},
	"E102": {
		Category: CategoryProperty,
		Message:  "Unknown type",
		Detail:   "No type with this name has been defined. Types are registered once, at package initialization.",
		DocURL:   "https://cuekit.dev/docs/errors/E102",
	},

	// Bridge (E201-E299)

	"E201": {
		Category: CategoryBridge,
		Message:  "Unknown object",
		Detail:   "No object is registered on the bridge under this name.",
		DocURL:   "https://cuekit.dev/docs/errors/E201",
	},
	"E202": {
		Category: CategoryBridge,
		Message:  "Invalid update payload",
		Detail:   "The request body is not a JSON object of property names to values.",
		DocURL:   "https://cuekit.dev/docs/errors/E202",
	},
	"E203": {
		Category: CategoryBridge,
		Message:  "WebSocket upgrade failed",
		DocURL:   "https://cuekit.dev/docs/errors/E203",
	},

	// Store (E301-E399)

	"E301": {
		Category: CategoryStore,
		Message:  "Snapshot not found",
		DocURL:   "https://cuekit.dev/docs/errors/E301",
	},
	"E302": {
		Category: CategoryStore,
		Message:  "Snapshot write failed",
		DocURL:   "https://cuekit.dev/docs/errors/E302",
	},

	// Config / CLI (E901-E999)

	"E901": {
		Category: CategoryConfig,
		Message:  "Invalid listen address",
		Detail:   "The listen address must be host:port, e.g. 127.0.0.1:8787.",
		DocURL:   "https://cuekit.dev/docs/errors/E901",
	},
	"E902": {
		Category: CategoryCLI,
		Message:  "Invalid command arguments",
		DocURL:   "https://cuekit.dev/docs/errors/E902",
	},
}

// Register adds an error template. Used by tests and future subsystems;
// re-registering a code replaces the template.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
