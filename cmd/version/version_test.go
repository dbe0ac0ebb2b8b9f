package versioncmder_test

import (
	"bytes"
	"runtime"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	versioncmder "github.com/papercomputeco/studybot/cmd/version"
	"github.com/papercomputeco/studybot/pkg/utils"
)

var _ = Describe("version", func() {
	run := func(args ...string) string {
		cmd := versioncmder.NewVersionCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs(args)
		Expect(cmd.Execute()).To(Succeed())
		return out.String()
	}

	It("prints the build details", func() {
		out := run()
		Expect(out).To(ContainSubstring("Version: " + utils.Version))
		Expect(out).To(ContainSubstring("Sha: " + utils.Sha))
		Expect(out).To(ContainSubstring(runtime.Version()))
	})

	It("prints only the version with --short", func() {
		Expect(run("--short")).To(Equal(utils.Version + "\n"))
	})

	It("rejects arguments", func() {
		cmd := versioncmder.NewVersionCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"extra"})
		Expect(cmd.Execute()).NotTo(Succeed())
	})
})
