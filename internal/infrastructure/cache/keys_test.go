package cache

import (
	"encoding/base64"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vetcloud/vetcare-platform/internal/core/domain/hospital"
)

func TestKeyForms(t *testing.T) {
	id := uuid.MustParse("7f9c24e5-2f03-4c1d-9a31-8f5a0f2d6b1e")

	assert.Equal(t, "hospital:7f9c24e5-2f03-4c1d-9a31-8f5a0f2d6b1e", HospitalKey(id))
	assert.Equal(t, "pet:7f9c24e5-2f03-4c1d-9a31-8f5a0f2d6b1e", PetKey(id))
	assert.Equal(t, "hospitals:list:abc", HospitalListKey("abc"))
	assert.Equal(t, "hospitals:count:abc", HospitalCountKey("abc"))
	assert.Equal(t, "pets:list:abc", PetListKey("abc"))
	assert.Equal(t, "pets:count:abc", PetCountKey("abc"))
}

func TestListKeysMatchTheirPatterns(t *testing.T) {
	re, err := compilePattern(HospitalListPattern)
	require.NoError(t, err)
	assert.True(t, re.MatchString(HospitalListKey(FilterHash(nil))))
	assert.False(t, re.MatchString(HospitalKey(uuid.New())))
	assert.False(t, re.MatchString(SearchKey("clinics in vienna")))

	re, err = compilePattern(SearchPattern)
	require.NoError(t, err)
	assert.True(t, re.MatchString(SearchKey("clinics in vienna")))
}

func TestSearchKeyEncodesQuery(t *testing.T) {
	key := SearchKey("emergency vets: vienna/22 *")

	assert.Contains(t, key, "search:")
	// The encoded query must stay one segment: no colons, slashes or stars.
	encoded := key[len("search:"):]
	assert.NotContains(t, encoded, ":")
	assert.NotContains(t, encoded, "/")
	assert.NotContains(t, encoded, "*")

	decoded, err := base64.RawURLEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Equal(t, "emergency vets: vienna/22 *", string(decoded))

	// Distinct queries get distinct keys.
	assert.NotEqual(t, key, SearchKey("emergency vets"))
}

func TestFilterHashStable(t *testing.T) {
	a := &hospital.Filter{City: "vienna", Specialty: hospital.SpecialtySurgery, MinRating: 4}
	b := &hospital.Filter{City: "vienna", Specialty: hospital.SpecialtySurgery, MinRating: 4}
	c := &hospital.Filter{City: "graz", Specialty: hospital.SpecialtySurgery, MinRating: 4}

	assert.Equal(t, FilterHash(a), FilterHash(b))
	assert.NotEqual(t, FilterHash(a), FilterHash(c))
	assert.Len(t, FilterHash(a), 16)
	assert.NotEqual(t, FilterHash(a), FilterHash(nil))
}
