package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "reseller/pkg/domain-errors"
)

const partnerUUID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"

func TestParseIDs(t *testing.T) {
	parsers := map[string]func(string) error{
		"partner": func(s string) error { _, err := ParsePartnerID(s); return err },
		"client":  func(s string) error { _, err := ParseClientID(s); return err },
		"domain":  func(s string) error { _, err := ParseDomainID(s); return err },
		"wallet":  func(s string) error { _, err := ParseWalletID(s); return err },
	}
	accepted := []string{
		partnerUUID,
		"7C9E6679-7425-40DE-944B-E07FC1F90AE7",
		"\t" + partnerUUID + " ",
	}
	rejected := []string{
		"",
		"  ",
		"acme-partner",
		uuid.Nil.String(),
		partnerUUID[:30],
		"7c9e6679\x00-7425-40de-944b-e07fc1f90ae7",
	}

	for kind, parse := range parsers {
		t.Run(kind, func(t *testing.T) {
			for _, in := range accepted {
				assert.NoError(t, parse(in), "%q", in)
			}
			for _, in := range rejected {
				err := parse(in)
				require.Error(t, err, "%q", in)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			}
		})
	}
}

func TestParseErrorNamesField(t *testing.T) {
	_, err := ParseWalletID("")
	assert.ErrorContains(t, err, "wallet_id is required")

	_, err = ParseDomainID(uuid.Nil.String())
	assert.ErrorContains(t, err, "domain_id must not be the nil UUID")
}

func TestIDString(t *testing.T) {
	p, err := ParsePartnerID(" " + partnerUUID)
	require.NoError(t, err)
	assert.Equal(t, partnerUUID, p.String())
	assert.False(t, p.IsNil())
	assert.True(t, PartnerID{}.IsNil())
	assert.NotEqual(t, NewDomainID(), NewDomainID())
}
