package studybotcmder_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	studybotcmder "github.com/papercomputeco/studybot/cmd/studybot"
)

var _ = Describe("NewStudybotCmd", func() {
	It("registers every subcommand", func() {
		cmd := studybotcmder.NewStudybotCmd()
		names := []string{}
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements("serve", "remind", "chat", "facts", "config", "auth", "init", "version"))
	})

	It("has global debug and config-dir flags", func() {
		cmd := studybotcmder.NewStudybotCmd()
		Expect(cmd.PersistentFlags().Lookup("debug").Shorthand).To(Equal("d"))
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})

	It("binds serve flags from the shared registry", func() {
		cmd := studybotcmder.NewStudybotCmd()
		serve, _, err := cmd.Find([]string{"serve"})
		Expect(err).NotTo(HaveOccurred())

		Expect(serve.Flags().Lookup("listen").DefValue).To(Equal(":8081"))
		Expect(serve.Flags().Lookup("storage-driver").DefValue).To(Equal("sqlite"))
		Expect(serve.Flags().Lookup("session-ttl").DefValue).To(Equal("300s"))
		Expect(serve.Flags().Lookup("reminder-interval").DefValue).To(Equal("1h"))
		Expect(serve.Flags().Lookup("events-provider").DefValue).To(Equal("none"))
	})

	It("prints the version", func() {
		cmd := studybotcmder.NewStudybotCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"version"})

		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Version: dev"))
	})

	It("fails serve without a page access token", func() {
		cmd := studybotcmder.NewStudybotCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs([]string{
			"serve",
			"--config-dir", GinkgoT().TempDir(),
			"--storage-driver", "memory",
		})

		err := cmd.Execute()
		Expect(err).To(MatchError(ContainSubstring("page access token")))
	})

	It("rejects an unknown serve log level", func() {
		cmd := studybotcmder.NewStudybotCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs([]string{
			"serve",
			"--config-dir", GinkgoT().TempDir(),
			"--storage-driver", "memory",
			"--log-level", "verbose",
		})

		Expect(cmd.Execute()).To(MatchError(ContainSubstring("unknown log level")))
	})
})
