package netatmo

// Token represents a token endpoint response for both the authorization_code
// and refresh_token grants. The refresh token is only present when the
// provider rotates it.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"` // Duration in seconds
}

// StationsData is the /api/getstationsdata response envelope.
type StationsData struct {
	Body       StationsBody `json:"body"`
	Status     string       `json:"status,omitempty"`
	TimeExec   float64      `json:"time_exec,omitempty"`
	TimeServer int64        `json:"time_server,omitempty"`
}

// StationsBody holds all stations visible to the authenticated user.
type StationsBody struct {
	Devices []Device `json:"devices"`
}

// Device is a base station with its attached modules.
type Device struct {
	ID            string         `json:"_id"`
	StationName   string         `json:"station_name"`
	ModuleName    string         `json:"module_name,omitempty"`
	Place         *Place         `json:"place,omitempty"`
	DashboardData *DashboardData `json:"dashboard_data,omitempty"`
	Modules       []Module       `json:"modules"`
}

// Module is an indoor or outdoor sensor module attached to a station.
type Module struct {
	ID            string         `json:"_id"`
	ModuleName    string         `json:"module_name"`
	Type          string         `json:"type,omitempty"`
	DataType      []string       `json:"data_type,omitempty"`
	DashboardData *DashboardData `json:"dashboard_data,omitempty"`
}

// Place describes the station location.
type Place struct {
	Altitude float64   `json:"altitude,omitempty"`
	City     string    `json:"city,omitempty"`
	Country  string    `json:"country,omitempty"`
	Timezone string    `json:"timezone,omitempty"`
	Location []float64 `json:"location,omitempty"` // [longitude, latitude]
}

// DashboardData holds the latest readings of a station or module. Pointer
// fields distinguish a missing measurement from a zero reading.
type DashboardData struct {
	TimeUTC     int64    `json:"time_utc"`
	Temperature *float64 `json:"Temperature,omitempty"`
	Humidity    *float64 `json:"Humidity,omitempty"`
	CO2         *float64 `json:"CO2,omitempty"`
	Pressure    *float64 `json:"Pressure,omitempty"`
	Noise       *float64 `json:"Noise,omitempty"`
}
