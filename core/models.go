package core

import "time"

type ServiceStatus string

const (
	ServiceOperational ServiceStatus = "operational"
	ServiceDegraded    ServiceStatus = "degraded"
	ServicePartial     ServiceStatus = "partial"
	ServiceMajor       ServiceStatus = "major"
	ServiceMaintenance ServiceStatus = "maintenance"
)

type IncidentStatus string

const (
	IncidentInvestigating IncidentStatus = "investigating"
	IncidentIdentified    IncidentStatus = "identified"
	IncidentMonitoring    IncidentStatus = "monitoring"
	IncidentResolved      IncidentStatus = "resolved"
)

type MaintenanceStatus string

const (
	MaintenanceUpcoming   MaintenanceStatus = "upcoming"
	MaintenanceInProgress MaintenanceStatus = "in_progress"
	MaintenanceCompleted  MaintenanceStatus = "completed"
)

type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
	ChannelBoth  NotificationChannel = "both"
)

type NotificationStatus string

const (
	NotificationDraft   NotificationStatus = "draft"
	NotificationSending NotificationStatus = "sending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
)

// ServiceGroup groups related services on the status page
type ServiceGroup struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Service is a monitored component
type Service struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Description string        `json:"description,omitempty"`
	Group       Ref           `json:"group"`
	Status      ServiceStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

type IncidentUpdate struct {
	Status    IncidentStatus `json:"status"`
	Message   string         `json:"message"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Incident is an unplanned outage with its timeline of updates
type Incident struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	ShortID          string           `json:"shortId"`
	Status           IncidentStatus   `json:"status"`
	ResolvedAt       *time.Time       `json:"resolvedAt,omitempty"`
	AffectedServices []Ref            `json:"affectedServices,omitempty"`
	Updates          []IncidentUpdate `json:"updates"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

type MaintenanceUpdate struct {
	Status    MaintenanceStatus `json:"status"`
	Message   string            `json:"message"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Maintenance is a scheduled maintenance window
type Maintenance struct {
	ID               string              `json:"id"`
	Title            string              `json:"title"`
	ShortID          string              `json:"shortId"`
	Description      string              `json:"description,omitempty"`
	Status           MaintenanceStatus   `json:"status"`
	ScheduledStartAt time.Time           `json:"scheduledStartAt"`
	ScheduledEndAt   *time.Time          `json:"scheduledEndAt,omitempty"`
	Duration         string              `json:"duration,omitempty"`
	AffectedServices []Ref               `json:"affectedServices,omitempty"`
	Updates          []MaintenanceUpdate `json:"updates,omitempty"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

// Notification is an outbound email/SMS message about an incident or maintenance
type Notification struct {
	ID                 string              `json:"id"`
	Title              string              `json:"title"`
	RelatedIncident    *Ref                `json:"relatedIncident,omitempty"`
	RelatedMaintenance *Ref                `json:"relatedMaintenance,omitempty"`
	UpdateIndex        *int                `json:"updateIndex,omitempty"`
	Channel            NotificationChannel `json:"channel"`
	Status             NotificationStatus  `json:"status"`
	Subject            string              `json:"subject,omitempty"`
	EmailBody          string              `json:"emailBody,omitempty"`
	SmsBody            string              `json:"smsBody,omitempty"`
	SentAt             *time.Time          `json:"sentAt,omitempty"`
	Error              string              `json:"error,omitempty"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}

// Subscriber receives notifications by email or SMS
type Subscriber struct {
	ID                 string    `json:"id"`
	Type               string    `json:"type"`
	Email              string    `json:"email,omitempty"`
	PhoneNumber        string    `json:"phoneNumber,omitempty"`
	SubscribedServices []Ref     `json:"subscribedServices,omitempty"`
	Verified           bool      `json:"verified"`
	VerificationToken  string    `json:"verificationToken,omitempty"`
	UnsubscribeToken   string    `json:"unsubscribeToken"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

type Media struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	MimeType  string    `json:"mimeType"`
	Filesize  int64     `json:"filesize"`
	Width     int       `json:"width,omitempty"`
	Height    int       `json:"height,omitempty"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Settings is the site-wide settings global
type Settings struct {
	ID                     string    `json:"id"`
	SiteName               string    `json:"siteName"`
	MetaTitle              string    `json:"metaTitle,omitempty"`
	MetaDescription        string    `json:"metaDescription,omitempty"`
	LogoLight              *Ref      `json:"logoLight,omitempty"`
	LogoDark               *Ref      `json:"logoDark,omitempty"`
	FooterText             string    `json:"footerText,omitempty"`
	MaintenanceModeEnabled bool      `json:"maintenanceModeEnabled,omitempty"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

// EmailSettings holds SMTP delivery settings
type EmailSettings struct {
	ID            string    `json:"id"`
	SMTPHost      string    `json:"smtpHost,omitempty"`
	SMTPPort      int       `json:"smtpPort,omitempty"`
	SMTPSecure    bool      `json:"smtpSecure,omitempty"`
	SMTPUser      string    `json:"smtpUser,omitempty"`
	SMTPPassword  string    `json:"smtpPassword,omitempty"`
	EmailFrom     string    `json:"emailFrom,omitempty"`
	EmailFromName string    `json:"emailFromName,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// SmsSettings holds Twilio credentials and message templates
type SmsSettings struct {
	ID                        string    `json:"id"`
	TwilioAccountSid          string    `json:"twilioAccountSid,omitempty"`
	TwilioAuthToken           string    `json:"twilioAuthToken,omitempty"`
	TwilioPhoneNumber         string    `json:"twilioPhoneNumber,omitempty"`
	TemplateIncidentNew       string    `json:"templateIncidentNew,omitempty"`
	TemplateIncidentUpdate    string    `json:"templateIncidentUpdate,omitempty"`
	TemplateMaintenanceNew    string    `json:"templateMaintenanceNew,omitempty"`
	TemplateMaintenanceUpdate string    `json:"templateMaintenanceUpdate,omitempty"`
	TemplateTitleMaxLength    int       `json:"templateTitleMaxLength,omitempty"`
	TemplateMessageMaxLength  int       `json:"templateMessageMaxLength,omitempty"`
	UpdatedAt                 time.Time `json:"updatedAt"`
}
