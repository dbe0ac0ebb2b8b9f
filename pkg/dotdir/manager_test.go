package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studybot/pkg/dotdir"
)

var _ = Describe("Manager", func() {
	var (
		tmpDir string
		m      *dotdir.Manager
	)

	// setenv sets (or with an empty value, unsets) an environment variable
	// for the current test.
	setenv := func(key, value string) {
		orig, had := os.LookupEnv(key)
		if value == "" {
			Expect(os.Unsetenv(key)).To(Succeed())
		} else {
			Expect(os.Setenv(key, value)).To(Succeed())
		}
		DeferCleanup(func() {
			if had {
				os.Setenv(key, orig)
			} else {
				os.Unsetenv(key)
			}
		})
	}

	chdir := func(dir string) {
		origDir, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(dir)).To(Succeed())
		DeferCleanup(func() { os.Chdir(origDir) })
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-test-*")
		Expect(err).NotTo(HaveOccurred())

		// Resolve symlinks so paths match filepath.Abs results
		// (e.g. on macOS /var -> /private/var).
		tmpDir, err = filepath.EvalSymlinks(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { os.RemoveAll(tmpDir) })

		// Start every test from a directory without ./.studybot and no
		// STUDYBOT_HOME.
		empty := filepath.Join(tmpDir, "cwd")
		Expect(os.Mkdir(empty, 0o755)).To(Succeed())
		chdir(empty)
		setenv(dotdir.HomeEnv, "")
		setenv("HOME", tmpDir)

		m = dotdir.NewManager()
	})

	Describe("Target", func() {
		It("creates an override directory that doesn't exist", func() {
			dir := filepath.Join(tmpDir, "newdir")
			result, err := m.Target(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(dir))
			Expect(dir).To(BeADirectory())
		})

		It("makes a relative override absolute", func() {
			result, err := m.Target("relative")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(tmpDir, "cwd", "relative")))
		})

		It("prefers the override over a local .studybot dir", func() {
			Expect(os.Mkdir(filepath.Join(tmpDir, "cwd", dotdir.DirName), 0o755)).To(Succeed())

			override := filepath.Join(tmpDir, "override")
			result, err := m.Target(override)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(override))
		})

		It("prefers a local .studybot dir over STUDYBOT_HOME", func() {
			local := filepath.Join(tmpDir, "cwd", dotdir.DirName)
			Expect(os.Mkdir(local, 0o755)).To(Succeed())
			setenv(dotdir.HomeEnv, filepath.Join(tmpDir, "bothome"))

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(local))
		})

		It("uses STUDYBOT_HOME when there is no local dir", func() {
			home := filepath.Join(tmpDir, "bothome")
			setenv(dotdir.HomeEnv, home)

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(home))
			Expect(home).To(BeADirectory())
		})

		It("falls back to ~/.studybot", func() {
			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(tmpDir, dotdir.DirName)))
			Expect(result).To(BeADirectory())
		})
	})

	Describe("Resolve", func() {
		It("does not create the directory", func() {
			result, err := m.Resolve("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(tmpDir, dotdir.DirName)))
			Expect(result).NotTo(BeAnExistingFile())
		})
	})

	Describe("Local", func() {
		It("points at ./.studybot whether or not it exists", func() {
			result, err := m.Local()
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(tmpDir, "cwd", dotdir.DirName)))
		})
	})

	Describe("DatabasePath", func() {
		It("places the database inside the resolved dir", func() {
			result, err := m.DatabasePath(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(tmpDir, dotdir.DatabaseFile)))
		})
	})
})
