package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liao/sommelier/internal/wine"
)

const catalogCSV = `name_ko,name_en,winery,country,region,wine_type,price,sweetness,acidity,body,tannin,aroma,food_matching,image_url,detail_url
몬테스 알파,Montes Alpha,Montes,칠레,콜차과,레드,39000,1,3,4,4,블랙베리,스테이크,,
클라우디 베이,Cloudy Bay,Cloudy Bay,뉴질랜드,말보로,화이트,52000,1,5,2,1,자몽,해산물,,
`

func setupWorkdir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "wine21_all_data.csv"), []byte(catalogCSV), 0o644))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestQueryCmd_RequiresExactlyOneArg(t *testing.T) {
	setupWorkdir(t)

	_, err := execute(t, "query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestQueryCmd_HasLimitFlag(t *testing.T) {
	flag := queryCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "2", flag.DefValue)
}

func TestBuildCmd_WithoutCredentials(t *testing.T) {
	setupWorkdir(t)

	_, err := execute(t, "build")
	require.Error(t, err)
	assert.ErrorIs(t, err, wine.ErrIndexUnavailable)
}

func TestQueryCmd_WithoutCredentials(t *testing.T) {
	setupWorkdir(t)

	_, err := execute(t, "query", "레드 와인")
	require.Error(t, err)
	assert.ErrorIs(t, err, wine.ErrIndexUnavailable)
}

func TestScoreCmd_FiltersByType(t *testing.T) {
	setupWorkdir(t)

	out, err := execute(t, "score", "--type", "레드", "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "[1] 몬테스 알파 (레드) 39000원")
	assert.NotContains(t, out, "클라우디 베이")
}

func TestScoreCmd_RejectsInvalidProfile(t *testing.T) {
	setupWorkdir(t)

	_, err := execute(t, "score", "--body", "9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid taste profile")
}
