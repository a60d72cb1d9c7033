package service

import (
	"strings"
	"testing"

	"travel-advisor-go/internal/model"

	"github.com/stretchr/testify/require"
)

func TestSelectPrompt_CountryType(t *testing.T) {
	tpl := SelectPrompt(model.QueryTypeCountry)
	require.Contains(t, tpl, "{country}")
}

func TestSelectPrompt_GeneralType(t *testing.T) {
	tpl := SelectPrompt(model.QueryTypeGeneral)
	require.Contains(t, tpl, "passport and visa advisory agent")
	require.NotContains(t, tpl, "{country}")
}

func TestSelectPrompt_UnknownTypeFallsBackToGeneral(t *testing.T) {
	require.Equal(t, SelectPrompt(model.QueryTypeGeneral), SelectPrompt(model.QueryType("bogus")))
	require.Equal(t, SelectPrompt(model.QueryTypeGeneral), SelectPrompt(model.QueryType("")))
}

func TestRenderPrompt_FillsCountrySlot(t *testing.T) {
	rendered := RenderPrompt(SelectPrompt(model.QueryTypeCountry), "Japan")
	require.Contains(t, rendered, "travel to Japan")
	require.NotContains(t, rendered, "{country}")
}

func TestRenderPrompt_EmptyCountryUsesFallback(t *testing.T) {
	rendered := RenderPrompt(SelectPrompt(model.QueryTypeCountry), "")
	require.NotContains(t, rendered, "{country}")
	require.True(t, strings.Contains(rendered, countrySlotFallback))
}
