package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"golang.org/x/crypto/scrypt"

	"github.com/Trustflow-Network-Labs/farepay/internal/utils"
)

const (
	defaultScryptN = 1 << 15
	scryptR        = 8
	scryptP        = 1
	keyLen         = 32
	saltSize       = 32
)

// Keystore keeps passphrase-encrypted EVM keys, one JSON file per wallet.
type Keystore struct {
	dir     string
	wallets map[string]*Wallet // walletID -> Wallet without private key
	mu      sync.RWMutex
	logger  utils.Logger
	scryptN int
}

// Wallet is a keystore entry. PrivateKey is only populated by Unlock.
type Wallet struct {
	ID         string            `json:"id"`
	Address    common.Address    `json:"address"`
	PrivateKey *ecdsa.PrivateKey `json:"-"`
	CreatedAt  int64             `json:"created_at"`
}

// walletFile is the on-disk format
type walletFile struct {
	ID           string `json:"id"`
	Address      string `json:"address"`
	EncryptedKey string `json:"encrypted_key"`
	Salt         string `json:"salt"`
	Nonce        string `json:"nonce"`
	CreatedAt    int64  `json:"created_at"`
}

// OpenKeystore loads wallet metadata from dir, creating it if needed.
func OpenKeystore(dir string, logger utils.Logger) (*Keystore, error) {
	if logger == nil {
		logger = utils.NopLogger{}
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create wallets directory: %w", err)
	}

	ks := &Keystore{
		dir:     dir,
		wallets: make(map[string]*Wallet),
		logger:  logger,
		scryptN: defaultScryptN,
	}

	if err := ks.loadWallets(); err != nil {
		return nil, fmt.Errorf("failed to load existing wallets: %w", err)
	}

	return ks, nil
}

// DefaultKeystoreDir is <DataDir>/wallets.
func DefaultKeystoreDir() string {
	return filepath.Join(utils.GetAppPaths("").DataDir, "wallets")
}

// Create generates a new key and stores it encrypted with passphrase.
func (ks *Keystore) Create(passphrase string) (*Wallet, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}
	return ks.store(privateKey, passphrase)
}

// Import stores an existing hex private key (with or without 0x).
func (ks *Keystore) Import(privateKeyHex string, passphrase string) (*Wallet, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	address := crypto.PubkeyToAddress(privateKey.PublicKey)
	if id, err := ks.Find(address.Hex()); err == nil {
		return nil, fmt.Errorf("address %s already stored as wallet %s", address.Hex(), id)
	}

	return ks.store(privateKey, passphrase)
}

func (ks *Keystore) store(privateKey *ecdsa.PrivateKey, passphrase string) (*Wallet, error) {
	if passphrase == "" {
		return nil, errors.New("passphrase must not be empty")
	}

	address := crypto.PubkeyToAddress(privateKey.PublicKey)
	wallet := &Wallet{
		ID:         fmt.Sprintf("%s-%s", strings.ToLower(address.Hex()[2:10]), uuid.NewString()[:8]),
		Address:    address,
		PrivateKey: privateKey,
		CreatedAt:  time.Now().Unix(),
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()

	if err := ks.saveWallet(wallet, passphrase); err != nil {
		return nil, fmt.Errorf("failed to save wallet: %w", err)
	}

	ks.wallets[wallet.ID] = &Wallet{ID: wallet.ID, Address: wallet.Address, CreatedAt: wallet.CreatedAt}
	ks.logger.Info(fmt.Sprintf("Stored wallet %s (%s)", wallet.ID, address.Hex()), "wallet")

	return wallet, nil
}

// List returns wallet metadata, oldest first.
func (ks *Keystore) List() []*Wallet {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	wallets := make([]*Wallet, 0, len(ks.wallets))
	for _, w := range ks.wallets {
		wallets = append(wallets, &Wallet{ID: w.ID, Address: w.Address, CreatedAt: w.CreatedAt})
	}
	sort.Slice(wallets, func(i, j int) bool {
		if wallets[i].CreatedAt == wallets[j].CreatedAt {
			return wallets[i].ID < wallets[j].ID
		}
		return wallets[i].CreatedAt < wallets[j].CreatedAt
	})

	return wallets
}

// Find resolves a wallet id or address to a wallet id.
func (ks *Keystore) Find(idOrAddress string) (string, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	if _, ok := ks.wallets[idOrAddress]; ok {
		return idOrAddress, nil
	}
	if common.IsHexAddress(idOrAddress) {
		address := common.HexToAddress(idOrAddress)
		for id, w := range ks.wallets {
			if w.Address == address {
				return id, nil
			}
		}
	}

	return "", fmt.Errorf("%w: %s", ErrWalletNotFound, idOrAddress)
}

// Default picks walletID if set, otherwise the oldest wallet.
func (ks *Keystore) Default(walletID string) (*Wallet, error) {
	if walletID != "" {
		id, err := ks.Find(walletID)
		if err != nil {
			return nil, err
		}
		ks.mu.RLock()
		defer ks.mu.RUnlock()
		w := ks.wallets[id]
		return &Wallet{ID: w.ID, Address: w.Address, CreatedAt: w.CreatedAt}, nil
	}

	wallets := ks.List()
	if len(wallets) == 0 {
		return nil, ErrNoWallets
	}
	return wallets[0], nil
}

// Unlock decrypts the wallet's private key.
func (ks *Keystore) Unlock(walletID string, passphrase string) (*Wallet, error) {
	ks.mu.RLock()
	_, exists := ks.wallets[walletID]
	ks.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrWalletNotFound, walletID)
	}

	return ks.loadAndDecryptWallet(filepath.Join(ks.dir, walletID+".json"), passphrase)
}

// Delete removes a wallet after verifying the passphrase.
func (ks *Keystore) Delete(walletID string, passphrase string) error {
	if _, err := ks.Unlock(walletID, passphrase); err != nil {
		return err
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()

	if err := os.Remove(filepath.Join(ks.dir, walletID+".json")); err != nil {
		return fmt.Errorf("failed to delete wallet file: %w", err)
	}
	delete(ks.wallets, walletID)
	ks.logger.Info(fmt.Sprintf("Deleted wallet %s", walletID), "wallet")

	return nil
}

func (ks *Keystore) deriveKey(passphrase string, salt []byte) ([]byte, error) {
	return scrypt.Key([]byte(passphrase), salt, ks.scryptN, scryptR, scryptP, keyLen)
}

func (ks *Keystore) saveWallet(wallet *Wallet, passphrase string) error {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	encryptionKey, err := ks.deriveKey(passphrase, salt)
	if err != nil {
		return fmt.Errorf("failed to derive encryption key: %w", err)
	}

	gcm, err := newGCM(encryptionKey)
	if err != nil {
		return err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	wf := &walletFile{
		ID:           wallet.ID,
		Address:      wallet.Address.Hex(),
		EncryptedKey: hex.EncodeToString(gcm.Seal(nil, nonce, crypto.FromECDSA(wallet.PrivateKey), nil)),
		Salt:         hex.EncodeToString(salt),
		Nonce:        hex.EncodeToString(nonce),
		CreatedAt:    wallet.CreatedAt,
	}

	data, err := json.MarshalIndent(wf, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal wallet: %w", err)
	}

	return utils.WriteFileAtomic(filepath.Join(ks.dir, wallet.ID+".json"), data, 0600)
}

func (ks *Keystore) loadAndDecryptWallet(walletPath string, passphrase string) (*Wallet, error) {
	data, err := os.ReadFile(walletPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet file: %w", err)
	}

	var wf walletFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet: %w", err)
	}

	encryptedKey, err := hex.DecodeString(wf.EncryptedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encrypted key: %w", err)
	}
	salt, err := hex.DecodeString(wf.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	nonce, err := hex.DecodeString(wf.Nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to decode nonce: %w", err)
	}

	decryptionKey, err := ks.deriveKey(passphrase, salt)
	if err != nil {
		return nil, fmt.Errorf("failed to derive decryption key: %w", err)
	}

	gcm, err := newGCM(decryptionKey)
	if err != nil {
		return nil, err
	}

	keyBytes, err := gcm.Open(nil, nonce, encryptedKey, nil)
	if err != nil {
		return nil, ErrInvalidPassphrase
	}

	privateKey, err := crypto.ToECDSA(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("stored key is not a valid secp256k1 key: %w", err)
	}

	address := crypto.PubkeyToAddress(privateKey.PublicKey)
	if !strings.EqualFold(address.Hex(), wf.Address) {
		return nil, fmt.Errorf("wallet %s: stored address does not match key", wf.ID)
	}

	return &Wallet{
		ID:         wf.ID,
		Address:    address,
		PrivateKey: privateKey,
		CreatedAt:  wf.CreatedAt,
	}, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// loadWallets reads wallet metadata (never keys) from disk
func (ks *Keystore) loadWallets() error {
	files, err := os.ReadDir(ks.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read wallets directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(ks.dir, file.Name()))
		if err != nil {
			ks.logger.Warn(fmt.Sprintf("Skipping unreadable wallet file %s: %v", file.Name(), err), "wallet")
			continue
		}

		var wf walletFile
		if err := json.Unmarshal(data, &wf); err != nil || !common.IsHexAddress(wf.Address) {
			ks.logger.Warn(fmt.Sprintf("Skipping malformed wallet file %s", file.Name()), "wallet")
			continue
		}

		ks.wallets[wf.ID] = &Wallet{
			ID:        wf.ID,
			Address:   common.HexToAddress(wf.Address),
			CreatedAt: wf.CreatedAt,
		}
	}

	return nil
}
