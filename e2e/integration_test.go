//go:build e2e

// Package e2e contains end-to-end integration tests using real DynamoDB tables.
// Run with: go test -tags=e2e -v ./e2e/...
package e2e

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/jacentio/ssrf/cell"
	"github.com/jacentio/ssrf/lists"
	"github.com/jacentio/ssrf/ssrf"
	"github.com/jacentio/ssrf/store"
)

// Test configuration
const (
	defaultProfile = "ssrf-e2e"

	// Table names - unique per test run to avoid conflicts
	tablePrefix = "ssrf-e2e-test"
)

var (
	testID         string
	documentTable  string
	referenceTable string
	uniqueTable    string

	ddbClient *dynamodb.Client
	testStore *store.Store
)

// --- Test Documents ---

// radios holds one transmitter per serial.
func radios(serials ...ssrf.Serial) *ssrf.Document {
	doc := ssrf.NewDocument()
	for _, serial := range serials {
		tx := ssrf.NewTransmitter(serial, "Manpack")
		tx.Class = cell.Unclassified
		tx.Status.Set(lists.StatusOperational)
		doc.Transmitters = append(doc.Transmitters, tx)
	}
	return doc
}

// configDoc holds a configuration referring to transmitters held elsewhere.
func configDoc(serial ssrf.Serial, txs ...ssrf.Serial) *ssrf.Document {
	doc := ssrf.NewDocument()
	c := &ssrf.Configuration{
		Common: ssrf.Common{Serial: serial},
		Name:   cell.Of("Guard"),
	}
	c.Class = cell.Unclassified
	c.TxRef.SetKeys(txs...)
	doc.Configurations = []*ssrf.Configuration{c}
	return doc
}

// --- Test Setup & Teardown ---

func TestMain(m *testing.M) {
	// Generate unique test ID
	testID = uuid.New().String()[:8]
	documentTable = fmt.Sprintf("%s-%s-documents", tablePrefix, testID)
	referenceTable = fmt.Sprintf("%s-%s-references", tablePrefix, testID)
	uniqueTable = fmt.Sprintf("%s-%s-unique", tablePrefix, testID)

	fmt.Printf("Test ID: %s\n", testID)

	profile := os.Getenv("AWS_PROFILE")
	if profile == "" {
		profile = defaultProfile
	}

	// Initialize AWS client (uses region from profile config)
	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithSharedConfigProfile(profile),
	)
	if err != nil {
		fmt.Printf("Failed to load AWS config: %v\n", err)
		os.Exit(1)
	}

	ddbClient = dynamodb.NewFromConfig(cfg)

	if err := createTables(ctx); err != nil {
		fmt.Printf("Failed to create tables: %v\n", err)
		os.Exit(1)
	}

	testStore = store.New(ddbClient, store.Config{
		DocumentTable:  documentTable,
		ReferenceTable: referenceTable,
		UniqueTable:    uniqueTable,
		NumShards:      4,
	})

	code := m.Run()

	if err := deleteTables(ctx); err != nil {
		fmt.Printf("Failed to delete tables: %v\n", err)
	}

	os.Exit(code)
}

func createTable(ctx context.Context, name, hash, rng string) error {
	input := &dynamodb.CreateTableInput{
		TableName: aws.String(name),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(hash), KeyType: types.KeyTypeHash},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(hash), AttributeType: types.ScalarAttributeTypeS},
		},
		BillingMode: types.BillingModePayPerRequest,
	}
	if rng != "" {
		input.KeySchema = append(input.KeySchema, types.KeySchemaElement{AttributeName: aws.String(rng), KeyType: types.KeyTypeRange})
		input.AttributeDefinitions = append(input.AttributeDefinitions, types.AttributeDefinition{AttributeName: aws.String(rng), AttributeType: types.ScalarAttributeTypeS})
	}
	if _, err := ddbClient.CreateTable(ctx, input); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	return nil
}

func createTables(ctx context.Context) error {
	fmt.Println("Creating test tables...")

	if err := createTable(ctx, documentTable, "id", ""); err != nil {
		return err
	}
	if err := createTable(ctx, referenceTable, "pk", "source_ref"); err != nil {
		return err
	}
	if err := createTable(ctx, uniqueTable, "pk", "sk"); err != nil {
		return err
	}

	// Wait for all tables to be active
	for _, tableName := range []string{documentTable, referenceTable, uniqueTable} {
		waiter := dynamodb.NewTableExistsWaiter(ddbClient)
		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(tableName),
		}, 2*time.Minute); err != nil {
			return fmt.Errorf("wait for table %s: %w", tableName, err)
		}
	}

	fmt.Println("All tables created and active")
	return nil
}

func deleteTables(ctx context.Context) error {
	fmt.Println("Deleting test tables...")

	for _, tableName := range []string{documentTable, referenceTable, uniqueTable} {
		_, err := ddbClient.DeleteTable(ctx, &dynamodb.DeleteTableInput{
			TableName: aws.String(tableName),
		})
		if err != nil {
			fmt.Printf("Warning: failed to delete table %s: %v\n", tableName, err)
		}
	}

	fmt.Println("Tables deleted")
	return nil
}

// --- Tests ---

func TestPutGet_RoundTrip(t *testing.T) {
	ctx := context.Background()
	id := store.NewID()
	tx := ssrf.NewSerial("TX")

	if err := testStore.Put(ctx, id, radios(tx)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	item, err := testStore.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if item.Version != 1 {
		t.Errorf("expected version 1, got %d", item.Version)
	}
	if item.CreatedAt == "" || item.UpdatedAt == "" {
		t.Error("expected timestamps to be set")
	}
	if got := item.Document.Transmitters[0].Serial; got != tx {
		t.Errorf("expected serial %s, got %s", tx, got)
	}
}

func TestPut_DuplicateSerial(t *testing.T) {
	ctx := context.Background()
	tx := ssrf.NewSerial("TX")

	if err := testStore.Put(ctx, store.NewID(), radios(tx)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	err := testStore.Put(ctx, store.NewID(), radios(tx))
	if !errors.Is(err, store.ErrDuplicateValue) {
		t.Errorf("expected ErrDuplicateValue, got %v", err)
	}
}

func TestUpdate_OptimisticLock(t *testing.T) {
	ctx := context.Background()
	id := store.NewID()
	tx := ssrf.NewSerial("TX")

	if err := testStore.Put(ctx, id, radios(tx)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := testStore.Update(ctx, id, radios(tx), 1); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if err := testStore.Update(ctx, id, radios(tx), 1); !errors.Is(err, store.ErrConcurrentModification) {
		t.Errorf("expected ErrConcurrentModification, got %v", err)
	}
}

func TestUpdate_ChangesSerial(t *testing.T) {
	ctx := context.Background()
	id := store.NewID()
	oldTx, newTx := ssrf.NewSerial("TX"), ssrf.NewSerial("TX")

	if err := testStore.Put(ctx, id, radios(oldTx)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := testStore.Update(ctx, id, radios(newTx), 1); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	// Old serial is free again
	if err := testStore.Put(ctx, store.NewID(), radios(oldTx)); err != nil {
		t.Errorf("expected old serial released, got %v", err)
	}
}

func TestDelete_OrphanProtect(t *testing.T) {
	ctx := context.Background()
	target, user := store.NewID(), store.NewID()
	tx := ssrf.NewSerial("TX")

	if err := testStore.Put(ctx, target, radios(tx)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := testStore.Put(ctx, user, configDoc(ssrf.NewSerial("CFG"), tx)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	err := testStore.Delete(ctx, target, store.DeleteOptions{OrphanProtect: true})
	if !errors.Is(err, store.ErrReferenced) {
		t.Fatalf("expected ErrReferenced, got %v", err)
	}

	refs, err := testStore.QueryReferrers(ctx, tx)
	if err != nil {
		t.Fatalf("QueryReferrers failed: %v", err)
	}
	if len(refs) != 1 || refs[0].Ref != store.DocumentRef(user) {
		t.Errorf("expected %s as only referrer, got %v", store.DocumentRef(user), refs)
	}
}

func TestDelete_SetsTTL(t *testing.T) {
	ctx := context.Background()
	id := store.NewID()

	if err := testStore.Put(ctx, id, radios(ssrf.NewSerial("TX"))); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := testStore.Delete(ctx, id, store.DeleteOptions{}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := testStore.Get(ctx, id); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := testStore.Delete(ctx, id, store.DeleteOptions{}); !errors.Is(err, store.ErrAlreadyDeleted) {
		t.Errorf("expected ErrAlreadyDeleted, got %v", err)
	}

	// SetTTL is idempotent
	if err := testStore.SetTTL(ctx, id); err != nil {
		t.Errorf("SetTTL failed: %v", err)
	}
}
