package session

import (
	"context"
	"errors"

	"github.com/AlexZinkM/tkey-wallet/internal/console"
	"github.com/AlexZinkM/tkey-wallet/internal/model"
	"github.com/AlexZinkM/tkey-wallet/internal/tkey"

	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Controller", func() {
	var (
		ctx         context.Context
		identity    *fakeIdentity
		keyClient   *fakeKeyClient
		storage     *fakeStorage
		device      *fakeDeviceStorage
		keyProvider *fakeKeyProvider
		reporter    *console.Console
		controller  *Controller
	)

	build := func() {
		var err error
		controller, err = New(Dependencies{
			Identity:      identity,
			KeyClient:     keyClient,
			Serializer:    tkey.NewShareSerializationModule(),
			DeviceStorage: device,
			Storage:       storage,
			KeyProvider:   keyProvider,
			Console:       reporter,
			Logger:        nil,
			Verifier:      "w3a-firebase-demo",
		})
		Expect(err).NotTo(HaveOccurred())
	}

	login := model.LoginRequest{Email: "alice@example.com", Password: "pw"}

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		identity = &fakeIdentity{identity: &model.Identity{IDToken: "id-token", UserID: "uid-1", DisplayName: "Alice"}}
		keyClient = newFakeKeyClient(0)
		storage = &fakeStorage{}
		device = &fakeDeviceStorage{}
		keyProvider = &fakeKeyProvider{}
		reporter = console.New(nil)
	})

	ginkgo.Describe("New", func() {
		ginkgo.It("rejects missing collaborators", func() {
			_, err := New(Dependencies{})
			Expect(err).To(HaveOccurred())
		})
	})

	ginkgo.Describe("Initialize", func() {
		ginkgo.It("enables login on success", func() {
			build()
			Expect(controller.Snapshot().State).To(Equal(Uninitialized))
			Expect(controller.Snapshot().Actions).To(BeEmpty())

			Expect(controller.Initialize(ctx)).To(Succeed())

			snap := controller.Snapshot()
			Expect(snap.State).To(Equal(Initialized))
			Expect(snap.ServiceProviderInitialized).To(BeTrue())
			Expect(snap.Actions).To(Equal([]string{ActionLogin}))
		})

		ginkgo.It("stays uninitialized and reports the error when the provider fails", func() {
			keyProvider.initErr = errors.New("rpc unreachable")
			build()

			err := controller.Initialize(ctx)
			Expect(err).To(MatchError(ContainSubstring("rpc unreachable")))
			Expect(controller.Snapshot().State).To(Equal(Uninitialized))
			Expect(reporter.Latest()).To(Equal([]any{"rpc unreachable"}))
		})
	})

	ginkgo.Describe("Login", func() {
		ginkgo.It("does nothing before initialization", func() {
			build()

			_, err := controller.Login(ctx, login)
			Expect(err).To(MatchError(ErrNotInitialized))
			Expect(identity.calls).To(BeZero())
			Expect(keyClient.connected).To(BeNil())
			Expect(reporter.Latest()).To(Equal([]any{"Service provider not initialized yet"}))
		})

		ginkgo.It("rejects an identity without user id", func() {
			identity.identity.UserID = ""
			build()
			Expect(controller.Initialize(ctx)).To(Succeed())

			_, err := controller.Login(ctx, login)
			Expect(err).To(MatchError(ErrMissingUserID))
			Expect(identity.calls).To(Equal(1))
			Expect(keyClient.connected).To(BeNil())
			Expect(controller.Snapshot().State).To(Equal(Initialized))
		})

		ginkgo.It("reports identity provider failures without retrying", func() {
			identity.err = errors.New("INVALID_PASSWORD")
			build()
			Expect(controller.Initialize(ctx)).To(Succeed())

			_, err := controller.Login(ctx, login)
			Expect(err).To(MatchError(ContainSubstring("INVALID_PASSWORD")))
			Expect(identity.calls).To(Equal(1))
			Expect(controller.Snapshot().User).To(BeNil())
		})

		ginkgo.It("clears the session when the key cannot be initialized", func() {
			keyClient.initializeErr = errors.New("metadata unavailable")
			build()
			Expect(controller.Initialize(ctx)).To(Succeed())

			_, err := controller.Login(ctx, login)
			Expect(err).To(HaveOccurred())

			snap := controller.Snapshot()
			Expect(snap.State).To(Equal(Initialized))
			Expect(snap.User).To(BeNil())
			Expect(keyClient.closes).To(Equal(1))
		})

		ginkgo.Context("when no shares are required", func() {
			ginkgo.BeforeEach(func() {
				build()
				Expect(controller.Initialize(ctx)).To(Succeed())
			})

			ginkgo.It("connects with the identity and reconstructs exactly once", func() {
				progress, err := controller.Login(ctx, login)
				Expect(err).NotTo(HaveOccurred())
				Expect(progress).To(Equal(&ShareProgress{LoggedIn: true}))

				Expect(keyClient.connected).To(Equal(&tkey.ConnectParams{
					Verifier:   "w3a-firebase-demo",
					VerifierID: "uid-1",
					IDToken:    "id-token",
				}))
				Expect(keyClient.reconstructs).To(Equal(1))
				Expect(keyProvider.setupCalls).To(Equal(1))
				Expect(keyProvider.lastKey).To(HaveLen(64))

				snap := controller.Snapshot()
				Expect(snap.State).To(Equal(LoggedIn))
				Expect(snap.LoggedIn).To(BeTrue())
				Expect(snap.KeyInitialized).To(BeTrue())
				Expect(snap.User).To(Equal(&model.UserProfile{UID: "uid-1", DisplayName: "Alice"}))
				Expect(snap.Actions).To(ContainElements(ActionGetAccounts, ActionSignMessage, ActionExportMnemonicShare))
				Expect(controller.Provider()).NotTo(BeNil())
			})

			ginkgo.It("refuses a second login", func() {
				_, err := controller.Login(ctx, login)
				Expect(err).NotTo(HaveOccurred())

				_, err = controller.Login(ctx, login)
				Expect(err).To(MatchError(ErrAlreadyLoggedIn))
				Expect(identity.calls).To(Equal(1))
			})

			ginkgo.It("leaves the provider unset when setup fails", func() {
				keyProvider.setupErr = errors.New("bad key")

				_, err := controller.Login(ctx, login)
				Expect(err).To(MatchError(ContainSubstring("bad key")))
				Expect(controller.Provider()).To(BeNil())
				Expect(controller.Snapshot().State).To(Equal(AwaitingShares))

				keyProvider.setupErr = nil
				Expect(controller.ReconstructKey(ctx)).To(Succeed())
				Expect(controller.Snapshot().State).To(Equal(LoggedIn))
			})
		})

		ginkgo.Context("when one share is required", func() {
			ginkgo.BeforeEach(func() {
				keyClient = newFakeKeyClient(1)
				build()
				Expect(controller.Initialize(ctx)).To(Succeed())
			})

			ginkgo.It("waits for shares without reconstructing", func() {
				progress, err := controller.Login(ctx, login)
				Expect(err).NotTo(HaveOccurred())
				Expect(progress).To(Equal(&ShareProgress{RequiredShares: 1}))

				Expect(keyClient.reconstructs).To(BeZero())
				Expect(keyProvider.setupCalls).To(BeZero())
				Expect(controller.Provider()).To(BeNil())

				snap := controller.Snapshot()
				Expect(snap.State).To(Equal(AwaitingShares))
				Expect(snap.RequiredShares).To(Equal(1))
				Expect(snap.Actions).To(ContainElement(ActionInputRecoveryShare))
				Expect(snap.Actions).NotTo(ContainElement(ActionSignMessage))
				Expect(reporter.Latest()).To(Equal([]any{"Please enter your backup shares, requiredShares:", 1}))
			})

			ginkgo.It("logs in after a recovery share is input", func() {
				_, err := controller.Login(ctx, login)
				Expect(err).NotTo(HaveOccurred())

				share := make(tkey.Share, tkey.ShareLen)
				share[0] = 3
				progress, err := controller.InputRecoveryShare(ctx, share.Hex())
				Expect(err).NotTo(HaveOccurred())
				Expect(progress).To(Equal(&ShareProgress{LoggedIn: true}))
				Expect(keyClient.reconstructs).To(Equal(1))
				Expect(controller.Snapshot().State).To(Equal(LoggedIn))

				_, err = controller.InputRecoveryShare(ctx, share.Hex())
				Expect(err).To(MatchError(ErrAlreadyLoggedIn))
			})

			ginkgo.It("keeps waiting when the share is rejected", func() {
				_, err := controller.Login(ctx, login)
				Expect(err).NotTo(HaveOccurred())

				_, err = controller.InputRecoveryShare(ctx, "not-hex")
				Expect(err).To(MatchError(ErrInvalidShare))
				Expect(keyClient.inputs).To(BeEmpty())
				Expect(controller.Snapshot().State).To(Equal(AwaitingShares))
				Expect(keyClient.reconstructs).To(BeZero())
			})

			ginkgo.It("treats a mnemonic like the share it encodes", func() {
				_, err := controller.Login(ctx, login)
				Expect(err).NotTo(HaveOccurred())

				share := make(tkey.Share, tkey.ShareLen)
				share[5] = 42
				mnemonic, err := tkey.NewShareSerializationModule().Serialize(share, tkey.FormatMnemonic)
				Expect(err).NotTo(HaveOccurred())

				progress, err := controller.RecoverFromMnemonic(ctx, mnemonic)
				Expect(err).NotTo(HaveOccurred())
				Expect(progress.LoggedIn).To(BeTrue())
				Expect(keyClient.inputs).To(Equal([]string{share.Hex()}))
			})

			ginkgo.It("rejects an invalid mnemonic", func() {
				_, err := controller.Login(ctx, login)
				Expect(err).NotTo(HaveOccurred())

				_, err = controller.RecoverFromMnemonic(ctx, "definitely not a mnemonic")
				Expect(err).To(MatchError(ErrInvalidShare))
				Expect(keyClient.inputs).To(BeEmpty())
			})

			ginkgo.It("refuses wallet-only operations", func() {
				_, err := controller.Login(ctx, login)
				Expect(err).NotTo(HaveOccurred())

				_, err = controller.ExportMnemonicShare(ctx)
				Expect(err).To(MatchError(ErrNotLoggedIn))
				_, err = controller.SetDeviceShare(ctx)
				Expect(err).To(MatchError(ErrNotLoggedIn))
			})
		})
	})

	ginkgo.Describe("share input", func() {
		ginkgo.It("requires a key session", func() {
			build()
			Expect(controller.Initialize(ctx)).To(Succeed())

			_, err := controller.InputRecoveryShare(ctx, "00")
			Expect(err).To(MatchError(ErrKeyNotInitialized))
			_, err = controller.RecoverFromMnemonic(ctx, "abandon")
			Expect(err).To(MatchError(ErrKeyNotInitialized))
			Expect(controller.ReconstructKey(ctx)).To(MatchError(ErrKeyNotInitialized))
		})
	})

	ginkgo.Describe("when logged in", func() {
		ginkgo.BeforeEach(func() {
			build()
			Expect(controller.Initialize(ctx)).To(Succeed())
			_, err := controller.Login(ctx, login)
			Expect(err).NotTo(HaveOccurred())
		})

		ginkgo.It("exports a new share as a mnemonic that decodes back to it", func() {
			export, err := controller.ExportMnemonicShare(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(export.ShareIndex).To(Equal(uint32(3)))

			share, err := tkey.NewShareSerializationModule().Deserialize(export.Mnemonic, tkey.FormatMnemonic)
			Expect(err).NotTo(HaveOccurred())
			want, _ := keyClient.OutputShareStore(3)
			Expect(share.Hex()).To(Equal(want.Share))
		})

		ginkgo.It("creates a new share index on every export", func() {
			first, err := controller.ExportMnemonicShare(ctx)
			Expect(err).NotTo(HaveOccurred())
			second, err := controller.ExportMnemonicShare(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(second.ShareIndex).To(Equal(first.ShareIndex + 1))
			Expect(second.Mnemonic).NotTo(Equal(first.Mnemonic))
		})

		ginkgo.It("stores and loads a device share", func() {
			idx, err := controller.SetDeviceShare(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(device.stored.ShareIndex).To(Equal(tkey.ShareIndex(idx)))

			store, err := controller.GetDeviceShare(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(store).To(Equal(device.stored))
		})

		ginkgo.It("reports key details and user info", func() {
			details, err := controller.KeyDetails(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(details.PubKey).To(Equal("pub"))

			user, err := controller.UserInfo()
			Expect(err).NotTo(HaveOccurred())
			Expect(user.UID).To(Equal("uid-1"))
		})

		ginkgo.It("resets everything on logout", func() {
			Expect(controller.Logout(ctx)).To(Succeed())

			snap := controller.Snapshot()
			Expect(snap.State).To(Equal(Initialized))
			Expect(snap.LoggedIn).To(BeFalse())
			Expect(snap.KeyInitialized).To(BeFalse())
			Expect(snap.RequiredShares).To(BeZero())
			Expect(snap.User).To(BeNil())
			Expect(controller.Provider()).To(BeNil())
			Expect(keyClient.closes).To(Equal(1))

			_, err := controller.UserInfo()
			Expect(err).To(MatchError(ErrNotLoggedIn))
			_, err = controller.KeyDetails(ctx)
			Expect(err).To(MatchError(ErrKeyNotInitialized))

			_, err = controller.Login(ctx, login)
			Expect(err).NotTo(HaveOccurred())
			Expect(controller.Snapshot().State).To(Equal(LoggedIn))
		})

		ginkgo.It("requires confirmation before a reset", func() {
			Expect(controller.CriticalResetAccount(ctx, "reset")).To(MatchError(ErrConfirmationRequired))
			Expect(storage.sets).To(BeEmpty())
			Expect(controller.Snapshot().State).To(Equal(LoggedIn))
		})

		ginkgo.It("marks the key as not found and logs out on reset", func() {
			Expect(controller.CriticalResetAccount(ctx, ResetConfirmation)).To(Succeed())

			Expect(storage.sets).To(HaveLen(1))
			Expect(storage.sets[0].PrivKey).To(Equal([]byte("postbox-key")))
			Expect(storage.sets[0].Input.IsKeyNotFound()).To(BeTrue())

			snap := controller.Snapshot()
			Expect(snap.State).To(Equal(Initialized))
			Expect(controller.Provider()).To(BeNil())
		})
	})

	ginkgo.Describe("CriticalResetAccount", func() {
		ginkgo.It("never touches the metadata store without a key session", func() {
			build()
			Expect(controller.Initialize(ctx)).To(Succeed())

			err := controller.CriticalResetAccount(ctx, ResetConfirmation)
			Expect(err).To(MatchError(ErrKeyNotInitialized))
			Expect(storage.sets).To(BeEmpty())
		})
	})

	ginkgo.Describe("device storage", func() {
		ginkgo.It("is optional", func() {
			device = nil
			controller, _ = New(Dependencies{
				Identity:    identity,
				KeyClient:   keyClient,
				Serializer:  tkey.NewShareSerializationModule(),
				Storage:     storage,
				KeyProvider: keyProvider,
				Verifier:    "v",
			})
			_, err := controller.GetDeviceShare(ctx)
			Expect(err).To(MatchError(ErrDeviceStorageDisabled))
		})

		ginkgo.It("reports a missing device share", func() {
			build()
			Expect(controller.Initialize(ctx)).To(Succeed())
			keyClient.required = 1
			_, err := controller.Login(ctx, login)
			Expect(err).NotTo(HaveOccurred())

			_, err = controller.GetDeviceShare(ctx)
			Expect(err).To(MatchError(ErrDeviceShareNotFound))
		})
	})

	ginkgo.Describe("busy guard", func() {
		ginkgo.It("rejects operations while another is in flight", func() {
			identity.entered = make(chan struct{})
			identity.release = make(chan struct{})
			build()
			Expect(controller.Initialize(ctx)).To(Succeed())

			done := make(chan error, 1)
			go func() {
				defer ginkgo.GinkgoRecover()
				_, err := controller.Login(ctx, login)
				done <- err
			}()

			Eventually(identity.entered).Should(BeClosed())
			Expect(controller.Snapshot().Busy).To(BeTrue())
			Expect(controller.Logout(ctx)).To(MatchError(ErrBusy))
			_, err := controller.Login(ctx, login)
			Expect(err).To(MatchError(ErrBusy))

			close(identity.release)
			Eventually(done).Should(Receive(BeNil()))
			Expect(controller.Snapshot().Busy).To(BeFalse())
			Expect(controller.Snapshot().State).To(Equal(LoggedIn))
		})

		ginkgo.It("withholds the provider while a reset drops it", func() {
			build()
			Expect(controller.Initialize(ctx)).To(Succeed())
			_, err := controller.Login(ctx, login)
			Expect(err).NotTo(HaveOccurred())
			Expect(controller.Provider()).NotTo(BeNil())

			storage.entered = make(chan struct{})
			storage.release = make(chan struct{})
			done := make(chan error, 1)
			go func() {
				defer ginkgo.GinkgoRecover()
				done <- controller.CriticalResetAccount(ctx, ResetConfirmation)
			}()

			Eventually(storage.entered).Should(BeClosed())
			provider, err := controller.Provider()
			Expect(err).To(MatchError(ErrBusy))
			Expect(provider).To(BeNil())

			close(storage.release)
			Eventually(done).Should(Receive(BeNil()))
			provider, err = controller.Provider()
			Expect(err).NotTo(HaveOccurred())
			Expect(provider).To(BeNil())
		})
	})
})
