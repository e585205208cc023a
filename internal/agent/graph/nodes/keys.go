package nodes

// Graph node keys. They double as handler names recorded in AppState.Handler.
const (
	NodeInput         = "input"
	NodePrimaryRouter = "primary_router"
	NodeInfoRouter    = "info_router"
	NodeCalendar      = "calendar"
	NodeOfficeInfo    = "office_info"
	NodeFreeformChat  = "freeform_chat"
	NodeFormatter     = "formatter"
)

// Prefixes of the messages produced by the data handlers. The formatter
// receives them verbatim.
const (
	CalendarDataPrefix   = "DATOS CALENDARIO:\n"
	OfficeInfoDataPrefix = "DATOS DESPACHO:\n"

	CalendarErrorPrefix   = "Excepción calendario: "
	OfficeInfoErrorPrefix = "Error de conexión: "
)

// Fixed texts embedded when a data capability is missing or its service
// answers with an error status. Transport failures use the prefixes above
// followed by the cause.
const (
	CalendarUnavailable     = "Error al obtener calendario externo."
	OfficeInfoNotConfigured = "Error: Configuración de Gemini RAG incompleta."
	OfficeInfoUnavailable   = "Error técnico al consultar la base de conocimiento."
)

// ExtraRouteKey is the formatter output Extra entry carrying the model.Route.
const ExtraRouteKey = "route"
