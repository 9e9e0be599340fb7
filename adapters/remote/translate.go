package remote

import "github.com/Docker-Hunterpedia/StatusDock/core"

// operators maps canonical operators to REST filter operators
var operators = map[core.Operator]string{
	core.OpEquals:           "$eq",
	core.OpNotEquals:        "$ne",
	core.OpGreaterThan:      "$gt",
	core.OpGreaterThanEqual: "$gte",
	core.OpLessThan:         "$lt",
	core.OpLessThanEqual:    "$lte",
	core.OpLike:             "$contains",
	core.OpContains:         "$contains",
	core.OpIn:               "$in",
	core.OpNotIn:            "$notIn",
	core.OpExists:           "$notNull",
}

// collections maps canonical collection slugs whose REST path differs
var collections = map[string]string{
	core.CollectionMedia: "upload/files",
}

// globals maps canonical global slugs to REST single types
var globals = map[string]string{
	core.GlobalSettings:      "setting",
	core.GlobalEmailSettings: "email-setting",
	core.GlobalSmsSettings:   "sms-setting",
}

// TranslateOperator returns the REST operator for op. Unknown operators
// are passed through as "$<op>" and reported with ok=false.
func TranslateOperator(op core.Operator) (native string, ok bool) {
	if native, ok := operators[op]; ok {
		return native, true
	}
	return "$" + string(op), false
}

// CollectionPath returns the REST resource name for a collection slug
func CollectionPath(collection string) string {
	if path, ok := collections[collection]; ok {
		return path
	}
	return collection
}

// GlobalPath returns the REST single type name for a global slug
func GlobalPath(slug string) string {
	if path, ok := globals[slug]; ok {
		return path
	}
	return slug
}
