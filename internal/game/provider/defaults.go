package provider

// DefaultDeclarations returns the built-in provider table in declaration order.
func DefaultDeclarations() []Declaration {
	return []Declaration{
		// Novelty
		{Name: "banana", ID: 1963},
		// Runes
		{Name: "air_rune", ID: 556},
		{Name: "water_rune", ID: 555},
		{Name: "earth_rune", ID: 557},
		{Name: "fire_rune", ID: 554},
		{Name: "mind_rune", ID: 558},
		{Name: "body_rune", ID: 559},
		{Name: "cosmic_rune", ID: 564},
		{Name: "chaos_rune", ID: 562},
		{Name: "nature_rune", ID: 561},
		{Name: "law_rune", ID: 563},
		{Name: "death_rune", ID: 560},
		{Name: "blood_rune", ID: 565},
		{Name: "soul_rune", ID: 566},
		{Name: "wrath_rune", ID: 21880},
		{Name: "sunfire_rune", ID: 28929, Components: []string{"fire_rune"}},
		// Elemental equipment
		{Name: "air_staff", ID: 1381, RequiresEquipped: true, Components: []string{"air_rune"}},
		{Name: "mystic_air_staff", ID: 1405, RequiresEquipped: true, Components: []string{"air_rune"}},
		{Name: "water_staff", ID: 1383, RequiresEquipped: true, Components: []string{"water_rune"}},
		{Name: "mystic_water_staff", ID: 1403, RequiresEquipped: true, Components: []string{"water_rune"}},
		{Name: "earth_staff", ID: 1385, RequiresEquipped: true, Components: []string{"earth_rune"}},
		{Name: "mystic_earth_staff", ID: 1407, RequiresEquipped: true, Components: []string{"earth_rune"}},
		{Name: "fire_staff", ID: 1387, RequiresEquipped: true, Components: []string{"fire_rune"}},
		{Name: "mystic_fire_staff", ID: 1401, RequiresEquipped: true, Components: []string{"fire_rune"}},
		{Name: "air_battlestaff", ID: 1397, RequiresEquipped: true, Components: []string{"air_rune"}},
		{Name: "water_battlestaff", ID: 1395, RequiresEquipped: true, Components: []string{"water_rune"}},
		{Name: "kodai_wand", ID: 21006, RequiresEquipped: true, Components: []string{"water_rune"}},
		{Name: "earth_battlestaff", ID: 1399, RequiresEquipped: true, Components: []string{"earth_rune"}},
		{Name: "fire_battlestaff", ID: 1393, RequiresEquipped: true, Components: []string{"fire_rune"}},
		{Name: "tome_of_fire", ID: 20714, RequiresEquipped: true, Components: []string{"fire_rune"}},
		{Name: "tome_of_water", ID: 25574, RequiresEquipped: true, Components: []string{"water_rune"}},
		{Name: "tome_of_earth", ID: 30064, RequiresEquipped: true, Components: []string{"earth_rune"}},
		// Combo runes
		{Name: "aether_rune", ID: 30844, Components: []string{"cosmic_rune", "soul_rune"}},
		{Name: "mist_rune", ID: 4695, Components: []string{"air_rune", "water_rune"}},
		{Name: "dust_rune", ID: 4696, Components: []string{"air_rune", "earth_rune"}},
		{Name: "mud_rune", ID: 4698, Components: []string{"water_rune", "earth_rune"}},
		{Name: "smoke_rune", ID: 4697, Components: []string{"fire_rune", "air_rune"}},
		{Name: "steam_rune", ID: 4694, Components: []string{"water_rune", "fire_rune"}},
		{Name: "lava_rune", ID: 4699, Components: []string{"earth_rune", "fire_rune"}},
		// Combo staves
		{Name: "mist_staff", ID: 20730, RequiresEquipped: true, Components: []string{"air_rune", "water_rune"}},
		{Name: "mystic_mist_staff", ID: 20733, RequiresEquipped: true, Components: []string{"air_rune", "water_rune"}},
		{Name: "dust_staff", ID: 20736, RequiresEquipped: true, Components: []string{"air_rune", "earth_rune"}},
		{Name: "mystic_dust_staff", ID: 20739, RequiresEquipped: true, Components: []string{"air_rune", "earth_rune"}},
		{Name: "mud_staff", ID: 6562, RequiresEquipped: true, Components: []string{"water_rune", "earth_rune"}},
		{Name: "mystic_mud_staff", ID: 6563, RequiresEquipped: true, Components: []string{"water_rune", "earth_rune"}},
		{Name: "smoke_staff", ID: 11998, RequiresEquipped: true, Components: []string{"fire_rune", "air_rune"}},
		{Name: "mystic_smoke_staff", ID: 12000, RequiresEquipped: true, Components: []string{"fire_rune", "air_rune"}},
		{Name: "steam_staff", ID: 11787, RequiresEquipped: true, Components: []string{"water_rune", "fire_rune"}},
		{Name: "steam_staff_or", ID: 12795, RequiresEquipped: true, Components: []string{"water_rune", "fire_rune"}},
		{Name: "mystic_steam_staff", ID: 11789, RequiresEquipped: true, Components: []string{"water_rune", "fire_rune"}},
		{Name: "mystic_steam_staff_or", ID: 12796, RequiresEquipped: true, Components: []string{"water_rune", "fire_rune"}},
		{Name: "lava_staff", ID: 3053, RequiresEquipped: true, Components: []string{"earth_rune", "fire_rune"}},
		{Name: "lava_staff_or", ID: 21198, RequiresEquipped: true, Components: []string{"earth_rune", "fire_rune"}},
		{Name: "mystic_lava_staff", ID: 3054, RequiresEquipped: true, Components: []string{"earth_rune", "fire_rune"}},
		{Name: "mystic_lava_staff_or", ID: 21200, RequiresEquipped: true, Components: []string{"earth_rune", "fire_rune"}},
		{Name: "twinflame_staff", ID: 30634, RequiresEquipped: true, Components: []string{"water_rune", "fire_rune"}},
		// Other
		{Name: "bryophytas_staff_charged", ID: 22370, RequiresEquipped: true, Components: []string{"nature_rune"}},
	}
}
