package core

// Collection slugs of the status page
const (
	CollectionServiceGroups = "service-groups"
	CollectionServices      = "services"
	CollectionIncidents     = "incidents"
	CollectionMaintenances  = "maintenances"
	CollectionNotifications = "notifications"
	CollectionSubscribers   = "subscribers"
	CollectionUsers         = "users"
	CollectionMedia         = "media"
)

// Global slugs
const (
	GlobalSettings      = "settings"
	GlobalEmailSettings = "email-settings"
	GlobalSmsSettings   = "sms-settings"
)

// Collections lists every status page collection
var Collections = []string{
	CollectionServiceGroups,
	CollectionServices,
	CollectionIncidents,
	CollectionMaintenances,
	CollectionNotifications,
	CollectionSubscribers,
	CollectionUsers,
	CollectionMedia,
}

// Globals lists every global slug
var Globals = []string{GlobalSettings, GlobalEmailSettings, GlobalSmsSettings}
