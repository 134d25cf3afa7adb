package main

import (
	"bytes"
	"net/http/httptest"
	"testing"
	"time"

	"smartqa_backend/internal/app"
	"smartqa_backend/internal/config"
	"smartqa_backend/internal/util"
	"smartqa_backend/pkg/client"
	"smartqa_backend/pkg/database/dbtest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*commandLine, *bytes.Buffer, client.Storage) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		JWT:     config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour},
		Storage: config.StorageConfig{Type: util.StorageLocal, LocalPath: t.TempDir()},
		Vector:  config.VectorConfig{Collection: "test", ChunkSize: 200, ChunkOverlap: 20, TopK: 3},
	}
	rdb, _ := dbtest.NewRedis(t)
	srv := httptest.NewServer(app.New(cfg, dbtest.NewDB(t), rdb).Router)
	t.Cleanup(srv.Close)

	orig := readPasswordFunc
	t.Cleanup(func() { readPasswordFunc = orig })

	out := &bytes.Buffer{}
	store := client.NewMemoryStorage()
	return newCommandLine(client.New(srv.URL), store, out), out, store
}

type cliTest struct {
	name       string
	args       []string // without program name
	password   string
	wantErr    error
	wantErrStr string
	wantOut    string
}

func Test_commandLine_run(t *testing.T) {
	cli, out, store := setup(t)

	tests := []cliTest{
		{name: "no command", args: nil, wantErr: errHelp},
		{name: "unknown command", args: []string{"frobnicate"}, wantErr: errHelp},
		{name: "register without email", args: []string{"register", "-username", "student1"}, wantErr: errHelp},
		{name: "whoami before login", args: []string{"whoami"}, wantErr: errNotLoggedIn},
		{name: "register", args: []string{"register", "-username", "student1", "-email", "student@test.com"}, wantOut: "registered student1 (student)"},
		{name: "whoami", args: []string{"whoami"}, wantOut: "student1 <student@test.com> student"},
		{name: "tests", args: []string{"tests"}, wantOut: "no active tests"},
		{name: "history empty", args: []string{"history"}, wantOut: "no questions asked yet"},
		{name: "history bad limit", args: []string{"history", "-limit", "0"}, wantErr: errHelp},
		{name: "ask bad ids", args: []string{"ask", "-q", "what?", "-docs", "1,x"}, wantErrStr: `invalid document id "x"`},
		{name: "ask without question", args: []string{"ask"}, wantErr: errHelp},
		{name: "logout", args: []string{"logout"}, wantOut: "logged out"},
		{name: "whoami after logout", args: []string{"whoami"}, wantErr: errNotLoggedIn},
		{name: "login wrong password", args: []string{"login", "-email", "student@test.com"}, password: "nope123", wantErrStr: "Incorrect email or password"},
		{name: "login empty password", args: []string{"login", "-email", "student@test.com"}, password: "-", wantErr: errEmptyPassword},
		{name: "login", args: []string{"login", "-email", "student@test.com"}, wantOut: "logged in as student1 (student)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pwd := "secret123"
			switch tt.password {
			case "":
			case "-":
				pwd = ""
			default:
				pwd = tt.password
			}
			readPasswordFunc = func(fd int) ([]byte, error) { return []byte(pwd), nil }
			out.Reset()

			err := cli.run(append([]string{"qactl"}, tt.args...))
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrStr)
			default:
				require.NoError(t, err)
				assert.Contains(t, out.String(), tt.wantOut)
			}
		})
	}

	token, ok := store.Get(client.KeyToken)
	assert.True(t, ok)
	assert.NotEmpty(t, token)
}

func Test_commandLine_theme(t *testing.T) {
	cli, out, store := setup(t)

	require.NoError(t, cli.run([]string{"qactl", "theme"}))
	assert.Equal(t, "light\n", out.String())

	out.Reset()
	require.NoError(t, cli.run([]string{"qactl", "theme", "toggle"}))
	assert.Equal(t, "dark\n", out.String())
	v, _ := store.Get(client.KeyTheme)
	assert.Equal(t, "dark", v)

	out.Reset()
	require.NoError(t, cli.run([]string{"qactl", "theme", "toggle"}))
	assert.Equal(t, "light\n", out.String())

	assert.Error(t, cli.run([]string{"qactl", "theme", "sepia"}))
}

func Test_parseIDs(t *testing.T) {
	ids, err := parseIDs(" 1, 2,,3 ")
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2, 3}, ids)

	ids, err = parseIDs("")
	require.NoError(t, err)
	assert.Nil(t, ids)

	_, err = parseIDs("0")
	assert.Error(t, err)
}
