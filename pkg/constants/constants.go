// Package constants provides shared constants for the mortgage-simulator application.
package constants

// DateTimeLayout is the format expected for payment start dates and is also
// the output date format of the payment schedule.
const DateTimeLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DaysPerYear is the commercial year used for daily capitalization
	DaysPerYear = 360

	// DecimalPlaces is the number of decimals kept for currency amounts
	DecimalPlaces = 2

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// MaxNumAnios is the longest loan term accepted, in years
	MaxNumAnios = 40
)

// Payment frequencies accepted in frecuencia_pago.
const (
	FrecuenciaMensual       = "mensual"
	FrecuenciaBimestral     = "bimestral"
	FrecuenciaTrimestral    = "trimestral"
	FrecuenciaCuatrimestral = "cuatrimestral"
	FrecuenciaSemestral     = "semestral"
	FrecuenciaAnual         = "anual"

	// CapitalizacionDiaria is only valid as a capitalization frequency.
	CapitalizacionDiaria = "diaria"
)

// Currency codes
const (
	MonedaSoles   = "PEN"
	MonedaDolares = "USD"
)

// Root-finding defaults for the internal rate of return.
const (
	// DefaultIRRTolerance is the absolute tolerance on the periodic rate
	DefaultIRRTolerance = 1e-7

	// DefaultIRRMaxIterations bounds Newton-Raphson plus bisection steps
	DefaultIRRMaxIterations = 200

	// IRRLowerBound is the lowest periodic rate searched (-99.99%)
	IRRLowerBound = -0.9999

	// IRRUpperBound is the highest periodic rate searched unless the
	// starting guess is already above it
	IRRUpperBound = 10.0
)

// Techo Propio subsidy defaults
const (
	// DefaultBonoPrecioMaximo is the property price ceiling for the subsidy
	DefaultBonoPrecioMaximo = 128900.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the response payload consumed by the web client
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultRequestFile is the default loan request file for the CLI
	DefaultRequestFile = "request.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix prefixes environment overrides, e.g. MS_LOGGING_LEVEL
	EnvPrefix = "MS"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (256 KB)
	DefaultMaxBodySizeBytes int64 = 256 * 1024

	// DefaultRateLimitCapacity is the number of requests per window per client
	DefaultRateLimitCapacity = 60

	// DefaultRetentionSchedule runs the plan retention purge once a day
	DefaultRetentionSchedule = "@daily"
)

// Validation constants
const (
	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// RateTolerance is the tolerance for rate round trips
	RateTolerance = 1e-9
)
