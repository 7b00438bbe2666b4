/*
Package factory converts deal envelopes (JSON or YAML) into typed deal
inputs and validates them before they reach a calculator.

PURPOSE:
  The calculators trust their inputs: percentages are 0-100, counts are
  positive, tiers are well formed. This package is where that contract is
  enforced for anything arriving from outside (HTTP bodies, CLI files).

ENVELOPE:
  {
    "type": "rental",
    "name": "Elm St duplex",
    "preset": true,
    "waterfall_preset": "standard",
    "inputs": { "purchase_price": 210000, "monthly_rent": 1850 }
  }

  With "preset" the inputs start from deals.Preset(type) and the "inputs"
  object overlays them field by field. Without it, "inputs" is the whole
  record. Unknown input fields are rejected. "waterfall_preset" replaces
  syndication tiers with a named preset.

  The same envelope is accepted as YAML:

    type: mh_park
    name: Shady Oaks
    inputs:
      lot_count: 75
      occupied_lots: 68

  MH-park inputs accept "occupied_lots" as an alternative to
  "occupancy_percent".

USAGE:
  d, err := factory.ParseDeal(body)
  if err != nil { ... }                                // syntax or structure
  if err := factory.Validate(d.Inputs); err != nil { ... } // ranges
  res, _ := deals.Calculate(d.Inputs)

SEE ALSO:
  - deals/presets.go: Default inputs per deal type
  - waterfall/waterfall.go: Tier presets and structural checks
*/
package factory

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/dealforge/deal-engine/deals"
	"github.com/dealforge/deal-engine/waterfall"
)

// =============================================================================
// ENVELOPE
// =============================================================================

// DealJSON is the wire form of a deal.
type DealJSON struct {
	Type            string          `json:"type"`
	Name            string          `json:"name,omitempty"`
	Preset          bool            `json:"preset,omitempty"`
	WaterfallPreset string          `json:"waterfall_preset,omitempty"`
	Inputs          json.RawMessage `json:"inputs,omitempty"`
}

// Deal is a parsed envelope.
type Deal struct {
	Name   string
	Inputs deals.Inputs
}

// ParseDeal parses a JSON envelope.
func ParseDeal(data []byte) (Deal, error) {
	var dj DealJSON
	if err := json.Unmarshal(data, &dj); err != nil {
		return Deal{}, fmt.Errorf("%w: failed to parse deal JSON: %v", ErrInvalidInput, err)
	}
	return FromJSON(dj)
}

// ParseDealYAML parses a YAML envelope by re-encoding it as JSON, so both
// formats share field names and overlay rules.
func ParseDealYAML(data []byte) (Deal, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Deal{}, fmt.Errorf("%w: failed to parse deal YAML: %v", ErrInvalidInput, err)
	}
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return Deal{}, fmt.Errorf("%w: failed to convert deal YAML: %v", ErrInvalidInput, err)
	}
	return ParseDeal(asJSON)
}

// ParseDealList parses a JSON array of envelopes.
func ParseDealList(data []byte) ([]Deal, error) {
	var list []DealJSON
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: failed to parse deal list: %v", ErrInvalidInput, err)
	}
	out := make([]Deal, 0, len(list))
	for i, dj := range list {
		d, err := FromJSON(dj)
		if err != nil {
			return nil, fmt.Errorf("deal %d: %w", i, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// FromJSON builds typed inputs from an envelope.
func FromJSON(dj DealJSON) (Deal, error) {
	t := deals.DealType(dj.Type)
	if !t.Valid() {
		return Deal{}, &ValidationError{Field: "type", Message: fmt.Sprintf("unknown deal type %q", dj.Type)}
	}

	in, err := DecodeInputs(t, dj.Preset, dj.Inputs)
	if err != nil {
		return Deal{}, err
	}

	if dj.WaterfallPreset != "" {
		synd, ok := in.(deals.SyndicationInputs)
		if !ok {
			return Deal{}, &ValidationError{Field: "waterfall_preset", Message: "only valid for syndication deals"}
		}
		tiers, err := waterfall.PresetTiers(dj.WaterfallPreset)
		if err != nil {
			return Deal{}, &ValidationError{Field: "waterfall_preset", Message: err.Error()}
		}
		synd.Tiers = tiers
		in = synd
	}

	return Deal{Name: dj.Name, Inputs: in}, nil
}

// ToJSON converts typed inputs back to an envelope.
func ToJSON(name string, in deals.Inputs) (DealJSON, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return DealJSON{}, fmt.Errorf("failed to encode inputs: %w", err)
	}
	return DealJSON{Type: string(in.Type()), Name: name, Inputs: raw}, nil
}

// =============================================================================
// INPUT DECODING
// =============================================================================

// mhParkJSON lets callers give occupied lots instead of a percentage.
type mhParkJSON struct {
	deals.MhParkInputs
	OccupiedLots *float64 `json:"occupied_lots,omitempty"`
}

// DecodeInputs decodes raw input JSON for a deal type, optionally on top of
// the type's preset.
func DecodeInputs(t deals.DealType, seed bool, raw json.RawMessage) (deals.Inputs, error) {
	var base deals.Inputs
	if seed {
		p, err := deals.Preset(t)
		if err != nil {
			return nil, err
		}
		base = p
	}

	switch t {
	case deals.TypeRental:
		return overlay(base, raw, deals.RentalInputs{})
	case deals.TypeBRRRR:
		return overlay(base, raw, deals.BRRRRInputs{})
	case deals.TypeFlip:
		return overlay(base, raw, deals.FlipInputs{})
	case deals.TypeHouseHack:
		return overlay(base, raw, deals.HouseHackInputs{})
	case deals.TypeMultifamily:
		return overlay(base, raw, deals.MultifamilyInputs{})
	case deals.TypeSyndication:
		return overlay(base, raw, deals.SyndicationInputs{})
	case deals.TypeMhPark:
		var pj mhParkJSON
		if base != nil {
			pj.MhParkInputs = base.(deals.MhParkInputs)
		}
		if err := decodeStrict(raw, &pj); err != nil {
			return nil, err
		}
		if pj.OccupiedLots != nil && pj.LotCount > 0 {
			pj.OccupancyPercent = *pj.OccupiedLots / float64(pj.LotCount) * 100
		}
		return pj.MhParkInputs, nil
	}
	return nil, fmt.Errorf("%w: %q", deals.ErrUnknownDealType, t)
}

// overlay decodes raw over base (or zero when base is nil).
func overlay[T deals.Inputs](base deals.Inputs, raw json.RawMessage, zero T) (deals.Inputs, error) {
	v := zero
	if base != nil {
		v = base.(T)
	}
	if err := decodeStrict(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeStrict(raw json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: inputs: %v", ErrInvalidInput, err)
	}
	return nil
}
