package constants

// Centralized constants for headers, env keys and the Anthropic integration.
const (
	// Environment variable keys
	EnvSessionSecret       = "SESSION_SECRET"
	EnvGoogleClientID      = "GOOGLE_CLIENT_ID"
	EnvGoogleClientSecret  = "GOOGLE_CLIENT_SECRET"
	EnvAnthropicAPIKey     = "ANTHROPIC_API_KEY"
	EnvSessionSecureCookie = "SESSION_SECURE_COOKIE"
	EnvConfigPath          = "STUDYMON_CONFIG"
	EnvDBPath              = "STUDYMON_DB"

	// HTTP headers and content types
	HeaderContentType      = "Content-Type"
	HeaderAnthropicAPIKey  = "x-api-key"
	HeaderAnthropicVersion = "anthropic-version"

	ContentTypeJSON = "application/json"

	// Anthropic API endpoint and model parameters
	AnthropicBaseURL      = "https://api.anthropic.com"
	AnthropicMessagesPath = "/v1/messages"
	AnthropicVersion      = "2023-06-01"
	AnthropicModel        = "claude-3-5-haiku-20241022"
	AnthropicMaxTokens    = 1024

	// Session / Cookie names
	CookieSessionName = "sm_session"

	// Google OAuth constants
	GoogleOAuthRedirect = "postmessage"
	GoogleUserInfoURL   = "https://www.googleapis.com/oauth2/v2/userinfo"
)

var (
	// Scopes for Google userinfo
	GoogleUserInfoScopes = []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"}
)

// Routes used by the backend router
const (
	RouteAPIPrefix          = "/api"
	RouteVersion            = "/version"
	RouteSpecies            = "/species"
	RouteAuthGoogleCallBack = "/auth/google/oauth2callback"
	RoutePlayerStats        = "/player-stats"
	RouteCollection         = "/collection"
	RoutePartyPosition      = "/collection/:creatureID/party-position"
	RouteHealAll            = "/collection/heal"
	RouteStarter            = "/collection/starter"
	RouteBattle             = "/battle"
	RouteBattleQuestion     = "/battle/question"
	RouteBattleAnswer       = "/battle/answer"
	RouteBattleSkill        = "/battle/skill"
	RouteBattleSwitch       = "/battle/switch"
	RouteBattleCatch        = "/battle/catch"
	RouteBattleFlee         = "/battle/flee"
	RouteBattleLearnSkill   = "/battle/learn-skill"
)

// Common JSON response keys
const (
	JSONKeyError   = "error"
	JSONKeyMessage = "message"
	JSONKeyDetails = "details"
)

// Common error messages used across API handlers
const (
	ErrInvalidRequest      = "Invalid request"
	ErrFailedFetchSpecies  = "Failed to fetch species"
	ErrFailedFetchStats    = "Failed to fetch stats"
	ErrFailedFetchParty    = "Failed to fetch collection"
	ErrFailedUpdateParty   = "Failed to update party position"
	ErrFailedHealParty     = "Failed to heal party"
	ErrFailedGrantStarter  = "Failed to grant starter creature"
	ErrStarterAlreadyOwned = "Starter already granted"

	ErrNoBattleInProgress   = "No battle in progress"
	ErrBattleAlreadyRunning = "A battle is already in progress"
	ErrFailedStartBattle    = "Failed to start battle"
	ErrEmptyParty           = "You need at least one creature in your party"
	ErrNotYourTurn          = "It is not your turn"
	ErrNotEnoughSP          = "Not enough SP"
	ErrCatchNotEligible     = "The wild creature is not weak enough to catch"
	ErrNoPendingQuestion    = "No question is pending"
	ErrNoPendingLevelUp     = "No level-up is pending"
	ErrFailedCheckpoint     = "Failed to save battle progress"
	ErrNotOwner             = "Creature does not belong to this user"

	ErrMissingGoogleEnv       = "Google OAuth is not configured"
	ErrFailedExchangeToken    = "Failed to exchange token"
	ErrFailedGetUserInfo      = "Failed to get user info"
	ErrNoEmailInGoogleProfile = "No email in Google profile"
	ErrFailedSaveProfile      = "Failed to save trainer profile"
	ErrFailedCreateSession    = "Failed to create session"

	ErrAuthRequired   = "Authentication required"
	ErrInvalidSession = "Invalid session"
)

// Logging field names
const (
	LogFieldUser       = "user"
	LogFieldCreatureID = "creature_id"
	LogFieldSpecies    = "species"
	LogFieldSkill      = "skill"
	LogFieldTopic      = "topic"
	LogFieldDifficulty = "difficulty"
	LogFieldState      = "state"
	LogFieldAddr       = "addr"
	LogFieldSource     = "source"
)
