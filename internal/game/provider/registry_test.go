package provider_test

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/choiceman/internal/game/provider"
)

func TestDefault_Builds(t *testing.T) {
	r := provider.Default()
	assert.Equal(t, len(provider.DefaultDeclarations()), r.Len())
}

func TestDefault_PlainRuneProvidesItself(t *testing.T) {
	r := provider.Default()
	assert.Equal(t, []int{555}, r.ProvidedResources(555))
	assert.True(t, r.IsCarriedProvider(555))
	assert.False(t, r.IsEquippedProvider(555))
}

func TestDefault_StaffRequiresEquipped(t *testing.T) {
	r := provider.Default()
	assert.True(t, r.IsEquippedProvider(1383))
	assert.False(t, r.IsCarriedProvider(1383))
	assert.Equal(t, []int{555}, r.ProvidedResources(1383))
}

func TestDefault_ComboRuneUnionsComponents(t *testing.T) {
	r := provider.Default()
	// mist rune: air + water
	assert.Equal(t, []int{555, 556}, r.ProvidedResources(4695))
	assert.True(t, r.IsCarriedProvider(4695))
	// aether rune: cosmic + soul
	assert.Equal(t, []int{564, 566}, r.ProvidedResources(30844))
}

func TestDefault_ComboStaff(t *testing.T) {
	r := provider.Default()
	// lava staff: earth + fire
	assert.Equal(t, []int{554, 557}, r.ProvidedResources(3053))
	assert.True(t, r.IsEquippedProvider(3053))
}

func TestDefault_SunfireRuneProvidesFireOnly(t *testing.T) {
	r := provider.Default()
	assert.Equal(t, []int{554}, r.ProvidedResources(28929))
}

func TestProvidedResources_UnknownIsEmpty(t *testing.T) {
	r := provider.Default()
	got := r.ProvidedResources(42)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.False(t, r.IsCarriedProvider(42))
	assert.False(t, r.IsEquippedProvider(42))
}

func TestProvidedResources_ReturnsCopy(t *testing.T) {
	r := provider.Default()
	got := r.ProvidedResources(4695)
	got[0] = 1
	assert.Equal(t, []int{555, 556}, r.ProvidedResources(4695))
}

func TestName(t *testing.T) {
	r := provider.Default()
	name, ok := r.Name(1383)
	require.True(t, ok)
	assert.Equal(t, "water_staff", name)
}

func TestBuild_TransitiveUnion(t *testing.T) {
	r, err := provider.Build([]provider.Declaration{
		{Name: "a", ID: 1},
		{Name: "b", ID: 2},
		{Name: "c", ID: 3},
		{Name: "ab", ID: 10, Components: []string{"a", "b"}},
		{Name: "abc", ID: 11, RequiresEquipped: true, Components: []string{"ab", "c", "a"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, r.ProvidedResources(11))
}

func TestBuild_DuplicateID(t *testing.T) {
	_, err := provider.Build([]provider.Declaration{
		{Name: "water_staff", ID: 1383, RequiresEquipped: true},
		{Name: "water_staff_carried", ID: 1383},
	})
	assert.ErrorIs(t, err, provider.ErrDuplicateProvider)
}

func TestBuild_DuplicateName(t *testing.T) {
	_, err := provider.Build([]provider.Declaration{
		{Name: "a", ID: 1},
		{Name: "a", ID: 2},
	})
	assert.ErrorIs(t, err, provider.ErrDuplicateProvider)
}

func TestBuild_ForwardReference(t *testing.T) {
	_, err := provider.Build([]provider.Declaration{
		{Name: "combo", ID: 10, Components: []string{"a"}},
		{Name: "a", ID: 1},
	})
	assert.ErrorIs(t, err, provider.ErrForwardReference)
}

func TestBuild_SelfReference(t *testing.T) {
	_, err := provider.Build([]provider.Declaration{
		{Name: "loop", ID: 10, Components: []string{"loop"}},
	})
	assert.ErrorIs(t, err, provider.ErrForwardReference)
}

func TestBuild_UnknownReference(t *testing.T) {
	_, err := provider.Build([]provider.Declaration{
		{Name: "combo", ID: 10, Components: []string{"missing"}},
	})
	assert.ErrorIs(t, err, provider.ErrUnknownReference)
}

func TestBuild_InvalidDeclaration(t *testing.T) {
	_, err := provider.Build([]provider.Declaration{{Name: "", ID: 1}})
	assert.ErrorIs(t, err, provider.ErrInvalidDeclaration)
	_, err = provider.Build([]provider.Declaration{{Name: "x", ID: 0}})
	assert.ErrorIs(t, err, provider.ErrInvalidDeclaration)
}

func TestLoadDeclarations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- name: air_rune
  id: 556
- name: water_rune
  id: 555
- name: mist_staff
  id: 20730
  requires_equipped: true
  components: [air_rune, water_rune]
`), 0644))
	decls, err := provider.LoadDeclarations(path)
	require.NoError(t, err)
	r, err := provider.Build(decls)
	require.NoError(t, err)
	assert.Equal(t, []int{555, 556}, r.ProvidedResources(20730))
	assert.True(t, r.IsEquippedProvider(20730))
}

func TestLoadDeclarations_Missing(t *testing.T) {
	_, err := provider.LoadDeclarations(filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)
}

// TestProperty_ComboEqualsUnionOfComponents verifies that a combo provider's
// resources equal the union of its components' resources, with no duplicates.
func TestProperty_ComboEqualsUnionOfComponents(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		plain := rapid.IntRange(1, 8).Draw(t, "plain")
		var decls []provider.Declaration
		for i := 0; i < plain; i++ {
			decls = append(decls, provider.Declaration{Name: fmt.Sprintf("p%d", i), ID: 100 + i})
		}
		combos := rapid.IntRange(1, 8).Draw(t, "combos")
		for i := 0; i < combos; i++ {
			earlier := len(decls)
			n := rapid.IntRange(1, 4).Draw(t, "components")
			var comps []string
			for k := 0; k < n; k++ {
				comps = append(comps, decls[rapid.IntRange(0, earlier-1).Draw(t, "comp")].Name)
			}
			decls = append(decls, provider.Declaration{
				Name:             fmt.Sprintf("c%d", i),
				ID:               1000 + i,
				RequiresEquipped: rapid.Bool().Draw(t, "equipped"),
				Components:       comps,
			})
		}

		r, err := provider.Build(decls)
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		byName := make(map[string]int)
		for _, d := range decls {
			byName[d.Name] = d.ID
		}
		for _, d := range decls {
			if len(d.Components) == 0 {
				continue
			}
			want := make(map[int]bool)
			for _, c := range d.Components {
				for _, id := range r.ProvidedResources(byName[c]) {
					want[id] = true
				}
			}
			var wantList []int
			for id := range want {
				wantList = append(wantList, id)
			}
			sort.Ints(wantList)
			got := r.ProvidedResources(d.ID)
			if fmt.Sprint(got) != fmt.Sprint(wantList) {
				t.Fatalf("%s: got %v want %v", d.Name, got, wantList)
			}
		}
	})
}
