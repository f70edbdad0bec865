package config

import (
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/lumenave/visitor-pass-service/internal/utils"
)

const AppName = "visitor-pass-service"

type Config struct {
	AppPort string

	// Database
	DBUrl string

	// The one facility this deployment serves.
	FacilityID         uuid.UUID
	FacilityName       string
	FacilityUTCOffset  string
	FacilityInfoText   string
	FacilityDirections string
	FacilityEmergency  string

	// Messaging transport
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromPhone  string

	// Daily summary email (disabled when the key is empty)
	SendGridAPIKey   string
	SummaryFromEmail string
	SummaryToEmail   string

	// Oversight API auth
	AdminJWTSecret []byte

	WizardIdleTTL time.Duration
}

func LoadConfig() *Config {
	cfg := &Config{
		AppPort: requireEnv("APP_PORT"),
		DBUrl:   requireEnv("DATABASE_URL"),

		FacilityName:      getEnv("FACILITY_NAME", "The Residences"),
		FacilityUTCOffset: getEnv("FACILITY_UTC_OFFSET", "+03:00"),
		FacilityInfoText: getEnv("FACILITY_INFO_TEXT",
			"Reception is open 07:00-23:00. Amenities are on the ground floor."),
		FacilityDirections: getEnv("FACILITY_DIRECTIONS",
			"Enter through the main gate and follow signs to reception."),
		FacilityEmergency: getEnv("FACILITY_EMERGENCY_CONTACT",
			"Security desk: dial 100 from any intercom."),

		TwilioAccountSID: requireEnv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  requireEnv("TWILIO_AUTH_TOKEN"),
		TwilioFromPhone:  requireEnv("TWILIO_FROM_PHONE"),

		SendGridAPIKey:   os.Getenv("SENDGRID_API_KEY"),
		SummaryFromEmail: os.Getenv("SUMMARY_FROM_EMAIL"),
		SummaryToEmail:   os.Getenv("SUMMARY_TO_EMAIL"),

		AdminJWTSecret: []byte(requireEnv("ADMIN_JWT_SECRET")),

		WizardIdleTTL: time.Duration(getIntEnv("WIZARD_IDLE_TTL_MINUTES", 30)) * time.Minute,
	}

	facilityID, err := uuid.Parse(requireEnv("FACILITY_ID"))
	if err != nil {
		utils.Logger.Fatal("FACILITY_ID is not a valid UUID: ", err)
	}
	cfg.FacilityID = facilityID

	return cfg
}

func requireEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		utils.Logger.Fatalf("%s env var is missing", key)
	}
	return value
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		utils.Logger.Fatalf("%s env var is not a number: %v", key, err)
	}
	return n
}
