package initcmder_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/studybot/cmd/studybot/init"
	"github.com/papercomputeco/studybot/pkg/config"
)

func loadConfig(dir string) *config.Config {
	data, err := os.ReadFile(filepath.Join(dir, ".studybot", "config.toml"))
	Expect(err).NotTo(HaveOccurred())

	cfg := &config.Config{}
	Expect(toml.Unmarshal(data, cfg)).To(Succeed())
	return cfg
}

var _ = Describe("NewInitCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Use).To(Equal("init"))
	})

	It("rejects any arguments", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Args(cmd, []string{})).To(Succeed())
		Expect(cmd.Args(cmd, []string{"extra"})).NotTo(Succeed())
	})

	It("has a --preset flag", func() {
		cmd := initcmder.NewInitCmd()
		f := cmd.Flags().Lookup("preset")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal(""))
	})
})

var _ = Describe("Init command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "studybot-init-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	run := func(args ...string) error {
		cmd := initcmder.NewInitCmd()
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	It("creates a .studybot directory with a default config.toml", func() {
		Expect(run()).To(Succeed())

		info, err := os.Stat(filepath.Join(tmpDir, ".studybot"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())

		cfg := loadConfig(tmpDir)
		Expect(cfg.Version).To(Equal(config.CurrentV))
		Expect(cfg.Storage.Driver).To(Equal("sqlite"))
		Expect(cfg.API.Listen).To(Equal(":8081"))
		Expect(cfg.Session.TTL).To(Equal("300s"))
	})

	It("does not overwrite an existing config without a preset", func() {
		dir := filepath.Join(tmpDir, ".studybot")
		Expect(os.MkdirAll(dir, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[api]\nlisten = \":9999\"\n"), 0o600)).To(Succeed())

		Expect(run()).To(Succeed())

		Expect(loadConfig(tmpDir).API.Listen).To(Equal(":9999"))
	})

	It("applies a named preset", func() {
		Expect(run("--preset", "production")).To(Succeed())

		cfg := loadConfig(tmpDir)
		Expect(cfg.Storage.Driver).To(Equal("postgres"))
		Expect(cfg.Session.Provider).To(Equal("redis"))
		Expect(cfg.Events.Provider).To(Equal("kafka"))
	})

	It("rejects unknown preset names", func() {
		err := run("--preset", "staging")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("unknown preset"))
	})

	Describe("--preset with remote URL", func() {
		It("fetches and writes remote config.toml", func() {
			remoteCfg := `version = 0

[messenger]
api_url = "https://graph.example.com/v2.6"

[worker]
num_workers = 12
`
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				fmt.Fprint(w, remoteCfg)
			}))
			defer server.Close()

			Expect(run("--preset", server.URL)).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.Messenger.APIURL).To(Equal("https://graph.example.com/v2.6"))
			Expect(cfg.Worker.NumWorkers).To(Equal(uint(12)))
		})

		It("returns error for non-200 HTTP response", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer server.Close()

			err := run("--preset", server.URL)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("HTTP 404"))
		})

		It("returns error for invalid TOML from URL", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, "this is not valid toml [[[")
			}))
			defer server.Close()

			err := run("--preset", server.URL)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("parsing"))
		})

		It("returns error for unreachable URL", func() {
			err := run("--preset", "http://127.0.0.1:1")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("fetching remote config"))
		})
	})
})
