// Command noise-demo exercises the secure channel library end to end:
// an in-process XX handshake, a resilient message stream with replay
// checks, and a batched bulk flush.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/opd-ai/noise-mobile-go/session"
)

var rootCmd = &cobra.Command{
	Use:   "noise-demo",
	Short: "Demonstrate the noise-mobile secure channel library",
}

var (
	flagLogLevel       string
	flagStreamMessages int
	flagBatchMessages  int
)

var handshakeCmd = &cobra.Command{
	Use:   "handshake",
	Short: "Run a three-message XX handshake between two in-process peers",
	RunE:  runHandshake,
}

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Send a resilient ordered stream and demonstrate replay rejection",
	RunE:  runStream,
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Queue messages through the batching layer and flush in bulk",
	RunE:  runBatch,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "logrus level (trace..panic)")
	streamCmd.Flags().IntVar(&flagStreamMessages, "messages", 3, "number of messages to stream")
	batchCmd.Flags().IntVar(&flagBatchMessages, "messages", 5, "number of messages to batch")
	rootCmd.AddCommand(handshakeCmd, streamCmd, batchCmd)
}

func main() {
	cobra.OnInitialize(func() {
		if level, err := logrus.ParseLevel(flagLogLevel); err == nil {
			logrus.SetLevel(level)
		}
	})
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// connectedPair runs the full XX handshake between a fresh initiator and
// responder and returns both in transport state.
func connectedPair() (*session.Session, *session.Session, error) {
	alice, err := session.NewInitiator()
	if err != nil {
		return nil, nil, err
	}
	bob, err := session.NewResponder()
	if err != nil {
		alice.Close()
		return nil, nil, err
	}

	msg1, err := alice.WriteMessage(nil)
	if err != nil {
		return nil, nil, err
	}
	if _, err := bob.ReadMessage(msg1); err != nil {
		return nil, nil, err
	}
	msg2, err := bob.WriteMessage(nil)
	if err != nil {
		return nil, nil, err
	}
	if _, err := alice.ReadMessage(msg2); err != nil {
		return nil, nil, err
	}
	msg3, err := alice.WriteMessage(nil)
	if err != nil {
		return nil, nil, err
	}
	if _, err := bob.ReadMessage(msg3); err != nil {
		return nil, nil, err
	}
	return alice, bob, nil
}

func runHandshake(cmd *cobra.Command, args []string) error {
	start := time.Now()
	alice, bob, err := connectedPair()
	if err != nil {
		return err
	}
	defer alice.Close()
	defer bob.Close()

	aliceRemote, _ := alice.RemoteStatic()
	bobRemote, _ := bob.RemoteStatic()

	fmt.Printf("handshake complete in %s (%s)\n", time.Since(start), session.ProtocolName)
	fmt.Printf("initiator sees responder static: %s\n", hex.EncodeToString(aliceRemote))
	fmt.Printf("responder sees initiator static: %s\n", hex.EncodeToString(bobRemote))

	ct, err := alice.Encrypt([]byte("Hello, Bob!"))
	if err != nil {
		return err
	}
	pt, err := bob.Decrypt(ct)
	if err != nil {
		return err
	}
	fmt.Printf("round trip: %q (%d ciphertext bytes)\n", pt, len(ct))
	return nil
}

func runStream(cmd *cobra.Command, args []string) error {
	alice, bob, err := connectedPair()
	if err != nil {
		return err
	}
	defer alice.Close()
	defer bob.Close()

	sender := session.NewResilientSession(alice)
	receiver := session.NewResilientSession(bob)

	var lastCiphertext []byte
	for i := 1; i <= flagStreamMessages; i++ {
		ct, err := sender.EncryptWithSequence(fmt.Appendf(nil, "Message %d", i))
		if err != nil {
			return err
		}
		pt, err := receiver.DecryptWithReplayCheck(ct)
		if err != nil {
			return err
		}
		fmt.Printf("seq %d: %q\n", receiver.ReceiveSequence(), pt)
		lastCiphertext = ct
	}

	if _, err := receiver.DecryptWithReplayCheck(lastCiphertext); err != nil {
		fmt.Printf("replayed last message rejected: %v\n", err)
	}

	blob := receiver.Serialize()
	fmt.Printf("resumption blob: %d bytes, receive sequence %d\n", len(blob), receiver.ReceiveSequence())
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	alice, bob, err := connectedPair()
	if err != nil {
		return err
	}
	defer alice.Close()
	defer bob.Close()

	batch := session.NewBatchedCryptoWithSettings(alice, flagBatchMessages+1, 10*time.Second)
	for i := 1; i <= flagBatchMessages; i++ {
		batch.QueueEncrypt(fmt.Appendf(nil, "Batched %d", i))
	}
	fmt.Printf("pending before flush: %d\n", batch.PendingEncryptsCount())

	ciphertexts, err := batch.FlushEncrypts()
	if err != nil {
		return err
	}

	for _, ct := range ciphertexts {
		pt, err := bob.Decrypt(ct)
		if err != nil {
			return err
		}
		fmt.Printf("decrypted: %q\n", pt)
	}
	return nil
}
