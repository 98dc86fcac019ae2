// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package security

import (
	"fmt"
	"math"
	"reflect"

	"github.com/go-viper/mapstructure/v2"

	"github.com/tomtom215/gatehouse/internal/models"
)

var (
	roleType = reflect.TypeOf(models.Role(0))
	tierType = reflect.TypeOf(models.SubscriptionTier(0))
)

// DecodeConfig builds a Config from a loosely typed map such as a decoded
// JSON body or a YAML route table. Unknown keys, unknown role or tier names,
// and undeclared permissions are rejected.
//
// Roles and tiers may be given by name ("admin", "pro") or by level.
func DecodeConfig(raw map[string]interface{}) (Config, error) {
	cfg := Config{ShowToastOnFail: true}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &cfg,
		TagName:     "mapstructure",
		ErrorUnused: true,
		DecodeHook:  mapstructure.ComposeDecodeHookFunc(enumHook(roleType, roleFromString), enumHook(tierType, tierFromString)),
	})
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := dec.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return cfg.normalize()
}

// enumHook converts names and integral numbers into the int-backed enum
// target. Names go through parse, which must reject unknown values.
func enumHook(target reflect.Type, parse func(string) (int, error)) mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data interface{}) (interface{}, error) {
		if to != target {
			return data, nil
		}
		var n int
		switch v := data.(type) {
		case string:
			parsed, err := parse(v)
			if err != nil {
				return nil, err
			}
			n = parsed
		case float64:
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("%s level %v is not an integer", target.Name(), v)
			}
			n = int(v)
		case int:
			n = v
		case int64:
			n = int(v)
		default:
			return data, nil
		}
		return reflect.ValueOf(n).Convert(target).Interface(), nil
	}
}

func roleFromString(s string) (int, error) {
	if !models.IsValidRoleName(s) {
		return 0, fmt.Errorf("unknown role %q", s)
	}
	return models.ParseRole(s).Level(), nil
}

func tierFromString(s string) (int, error) {
	if !models.IsValidTierName(s) {
		return 0, fmt.Errorf("unknown subscription tier %q", s)
	}
	return int(models.ParseSubscriptionTier(s)), nil
}
