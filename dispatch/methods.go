package dispatch

// Kind classifies a shell method by its effect on the database.
type Kind string

const (
	KindRead    Kind = "read"
	KindWrite   Kind = "write"
	KindAdmin   Kind = "admin"
	KindUnknown Kind = "unknown"
)

var methodKinds = map[string]Kind{
	// collection reads
	"find":                   KindRead,
	"findOne":                KindRead,
	"aggregate":              KindRead,
	"count":                  KindRead,
	"countDocuments":         KindRead,
	"estimatedDocumentCount": KindRead,
	"distinct":               KindRead,
	"getIndexes":             KindRead,
	"stats":                  KindRead,

	// collection writes
	"insert":            KindWrite,
	"insertOne":         KindWrite,
	"insertMany":        KindWrite,
	"update":            KindWrite,
	"updateOne":         KindWrite,
	"updateMany":        KindWrite,
	"replaceOne":        KindWrite,
	"remove":            KindWrite,
	"deleteOne":         KindWrite,
	"deleteMany":        KindWrite,
	"findOneAndUpdate":  KindWrite,
	"findOneAndReplace": KindWrite,
	"findOneAndDelete":  KindWrite,
	"bulkWrite":         KindWrite,

	// administration
	"drop":               KindAdmin,
	"dropDatabase":       KindAdmin,
	"createCollection":   KindAdmin,
	"renameCollection":   KindAdmin,
	"createIndex":        KindAdmin,
	"createIndexes":      KindAdmin,
	"dropIndex":          KindAdmin,
	"dropIndexes":        KindAdmin,
	"runCommand":         KindAdmin,
	"adminCommand":       KindAdmin,
	"getCollectionNames": KindAdmin,
	"getCollectionInfos": KindAdmin,
	"serverStatus":       KindAdmin,
}

// KindOf returns the kind of a shell method name.
func KindOf(method string) Kind {
	if kind, ok := methodKinds[method]; ok {
		return kind
	}

	return KindUnknown
}

// methods whose first argument is a filter that selects every document when empty
var filterFirst = map[string]bool{
	"deleteMany": true,
	"remove":     true,
	"updateMany": true,
}

// always dangerous regardless of arguments
var destructive = map[string]bool{
	"drop":         true,
	"dropDatabase": true,
	"dropIndexes":  true,
}
