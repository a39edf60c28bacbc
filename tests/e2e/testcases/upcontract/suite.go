// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package upcontract

import (
	"os"

	"github.com/luxfi/pop/tests/e2e/commands"
	"github.com/luxfi/pop/tests/e2e/utils"
	ginkgo "github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("[Up Contract]", ginkgo.Ordered, func() {
	var projectDir string

	ginkgo.BeforeAll(func() {
		var err error
		projectDir, err = utils.NewFlipperProject()
		gomega.Expect(err).Should(gomega.BeNil())
	})

	ginkgo.AfterAll(func() {
		_ = os.RemoveAll(projectDir)
	})

	ginkgo.It("rejects a gas limit without a proof size", func() {
		out, err := commands.UpContract(
			"--path", projectDir,
			"--suri", utils.DevSURI,
			"--gas", "100000000",
		)
		gomega.Expect(err).Should(gomega.HaveOccurred())
		gomega.Expect(out).Should(gomega.ContainSubstring("proof size"))
	})

	ginkgo.It("fails when there is no Cargo.toml", func() {
		out, err := commands.UpContract(
			"--path", ginkgo.GinkgoT().TempDir(),
			"--suri", utils.DevSURI,
		)
		gomega.Expect(err).Should(gomega.HaveOccurred())
		gomega.Expect(out).Should(gomega.ContainSubstring("manifest not found"))
	})

	ginkgo.It("fails fast without a secret URI when not interactive", func() {
		out, err := commands.UpContract("--path", projectDir)
		gomega.Expect(err).Should(gomega.HaveOccurred())
		gomega.Expect(out).Should(gomega.ContainSubstring("--suri"))
	})

	ginkgo.It("deploys flipper to a running node", func() {
		url, contractDir := os.Getenv(utils.NodeURLEnv), os.Getenv(utils.ContractPathEnv)
		if url == "" || contractDir == "" {
			ginkgo.Skip(utils.NodeURLEnv + " and " + utils.ContractPathEnv + " not set")
		}
		out, err := commands.UpContract(
			"--path", contractDir,
			"--args", "true",
			"--url", url,
			"--suri", utils.DevSURI,
		)
		gomega.Expect(err).Should(gomega.BeNil(), out)
		gomega.Expect(out).Should(gomega.ContainSubstring("Contract deployed and instantiated"))
		gomega.Expect(out).Should(gomega.ContainSubstring("Deployment complete"))
	})
})
