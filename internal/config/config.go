// Package config defines the data structures related to configuration and
// includes functions for loading and parsing the config.
package config

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iwvelando/mortgage-simulator/pkg/constants"
	"github.com/iwvelando/mortgage-simulator/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for mortgage-simulator.
type Configuration struct {
	Logging    LoggingConfig   `mapstructure:"logging" yaml:"logging,omitempty"`
	Output     OutputConfig    `mapstructure:"output" yaml:"output,omitempty"`
	Engine     EngineConfig    `mapstructure:"engine" yaml:"engine,omitempty"`
	Bono       BonoConfig      `mapstructure:"bono" yaml:"bono,omitempty"`
	TipoCambio float64         `mapstructure:"tipoCambio" yaml:"tipoCambio,omitempty"`
	Entidades  []EntidadConfig `mapstructure:"entidades" yaml:"entidades,omitempty"`
	Locales    []LocalConfig   `mapstructure:"locales" yaml:"locales,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty"`           // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format,omitempty"`         // json, console
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format,omitempty"` // pretty, csv, json
}

// EngineConfig tunes the internal rate of return search.
type EngineConfig struct {
	IRRTolerance     float64 `mapstructure:"irrTolerance" yaml:"irrTolerance,omitempty"`
	IRRMaxIterations int     `mapstructure:"irrMaxIterations" yaml:"irrMaxIterations,omitempty"`
}

// BonoConfig holds the Techo Propio subsidy ceilings. A zero value disables
// the corresponding check.
type BonoConfig struct {
	PrecioMaximo  float64 `mapstructure:"precioMaximo" yaml:"precioMaximo,omitempty"`
	IngresoMaximo float64 `mapstructure:"ingresoMaximo" yaml:"ingresoMaximo,omitempty"`
	MontoMaximo   float64 `mapstructure:"montoMaximo" yaml:"montoMaximo,omitempty"`
}

// EntidadConfig is a financial entity as written in the config file.
type EntidadConfig struct {
	ID                       uint    `mapstructure:"id"`
	Nombre                   string  `mapstructure:"nombre"`
	Moneda                   string  `mapstructure:"moneda"`
	TasaInteres              float64 `mapstructure:"tasa_interes"`
	TipoTasa                 string  `mapstructure:"tipo_tasa"`
	FrecuenciaNominal        string  `mapstructure:"frecuencia_nominal"`
	FrecuenciaEfectiva       string  `mapstructure:"frecuencia_efectiva"`
	Capitalizacion           string  `mapstructure:"capitalizacion"`
	SeguroDesgravamen        float64 `mapstructure:"seguro_desgravamen"`
	AplicaSeguroDesgravamen  bool    `mapstructure:"aplica_seguro_desgravamen"`
	DesgravamenBase          string  `mapstructure:"desgravamen_base"`
	AplicaBonoTechoPropio    bool    `mapstructure:"aplica_bono_techo_propio"`
	MaxMesesGracia           *int    `mapstructure:"max_meses_gracia"`
	PeriodosGraciaPermitidos string  `mapstructure:"periodos_gracia_permitidos"`
	Activo                   bool    `mapstructure:"activo"`
}

// LocalConfig is a property as written in the config file.
type LocalConfig struct {
	ID             uint                 `mapstructure:"id"`
	Nombre         string               `mapstructure:"nombre"`
	Direccion      string               `mapstructure:"direccion"`
	Tipo           string               `mapstructure:"tipo"`
	Precio         float64              `mapstructure:"precio"`
	Moneda         string               `mapstructure:"moneda"`
	ImagenURL      string               `mapstructure:"imagen_url"`
	CostoInicial   CostoInicialConfig   `mapstructure:"costo_inicial"`
	CostoPeriodico CostoPeriodicoConfig `mapstructure:"costo_periodico"`
}

// CostoInicialConfig lists the upfront costs of a property purchase.
type CostoInicialConfig struct {
	CostesNotariales   float64 `mapstructure:"costes_notariales"`
	CostesRegistrales  float64 `mapstructure:"costes_registrales"`
	Tasacion           float64 `mapstructure:"tasacion"`
	ComisionEstudio    float64 `mapstructure:"comision_estudio"`
	ComisionActivacion float64 `mapstructure:"comision_activacion"`
	SeguroRiesgo       float64 `mapstructure:"seguro_riesgo"`
}

// CostoPeriodicoConfig lists the monthly costs charged with every installment.
type CostoPeriodicoConfig struct {
	ComisionPeriodica      float64 `mapstructure:"comision_periodica"`
	Portes                 float64 `mapstructure:"portes"`
	GastosAdministrativos  float64 `mapstructure:"gastos_administrativos"`
	SeguroContraTodoRiesgo float64 `mapstructure:"seguro_contra_todo_riesgo"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("engine.irrTolerance", constants.DefaultIRRTolerance)
	v.SetDefault("engine.irrMaxIterations", constants.DefaultIRRMaxIterations)
	v.SetDefault("bono.precioMaximo", constants.DefaultBonoPrecioMaximo)
	v.SetDefault("bono.ingresoMaximo", 0)
	v.SetDefault("bono.montoMaximo", 0)
	v.SetDefault("tipoCambio", 0)
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. Any key may be overridden from the environment, e.g.
// MS_LOGGING_LEVEL=debug.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}

	return decode(v)
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if c.TipoCambio < 0 {
		warnings = append(warnings, fmt.Sprintf("tipoCambio %.4f is negative", c.TipoCambio))
	}
	if c.Bono.PrecioMaximo < 0 || c.Bono.IngresoMaximo < 0 || c.Bono.MontoMaximo < 0 {
		warnings = append(warnings, "bono ceilings must not be negative")
	}

	validator := validation.ConfigValidator{}
	for _, e := range c.Entidades {
		validator.Entidades = append(validator.Entidades, validation.EntidadConfig{
			ID:                       strconv.FormatUint(uint64(e.ID), 10),
			Moneda:                   strings.ToUpper(strings.TrimSpace(e.Moneda)),
			TasaInteres:              e.TasaInteres,
			TipoTasa:                 strings.ToUpper(strings.TrimSpace(e.TipoTasa)),
			Capitalizacion:           strings.ToLower(strings.TrimSpace(e.Capitalizacion)),
			SeguroDesgravamen:        e.SeguroDesgravamen,
			MaxMesesGracia:           e.MaxMesesGracia,
			PeriodosGraciaPermitidos: e.PeriodosGraciaPermitidos,
			Activo:                   e.Activo,
		})
	}
	for _, l := range c.Locales {
		validator.Locales = append(validator.Locales, validation.LocalConfig{
			ID:     strconv.FormatUint(uint64(l.ID), 10),
			Moneda: strings.ToUpper(strings.TrimSpace(l.Moneda)),
			Precio: l.Precio,
		})
	}

	return append(warnings, validator.ValidateAll()...)
}
