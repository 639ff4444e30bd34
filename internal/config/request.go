package config

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iwvelando/mortgage-simulator/pkg/loans"
	"github.com/spf13/viper"
)

// LoadRequest reads a loan request from a YAML or JSON file. Keys follow the
// JSON names the web client sends, e.g. precio_venta and periodo_gracia.
func LoadRequest(requestPath string) (*loans.LoanRequest, error) {
	v := viper.New()
	v.SetConfigFile(requestPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading request file, %s", err)
	}
	return requestFromSettings(v.AllSettings())
}

// LoadRequestFromReader reads a YAML-formatted loan request from r.
func LoadRequestFromReader(r io.Reader) (*loans.LoanRequest, error) {
	v := viper.New()
	v.SetConfigType("yml")
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading request data, %s", err)
	}
	return requestFromSettings(v.AllSettings())
}

// requestFromSettings goes through JSON so the request types apply the same
// decoding rules as for HTTP payloads.
func requestFromSettings(settings map[string]interface{}) (*loans.LoanRequest, error) {
	raw, err := json.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("unable to encode request, %s", err)
	}
	var req loans.LoanRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("unable to decode request, %s", err)
	}
	return &req, nil
}
