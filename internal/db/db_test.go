package db

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sebastian05-bossu/1337loader/internal/models"
	internalsettings "github.com/sebastian05-bossu/1337loader/internal/settings"
)

func TestIsSQLiteDSN(t *testing.T) {
	cases := map[string]bool{
		"file:portal.db":                           true,
		"/var/lib/portal/portal.db":                true,
		"data.sqlite?cache=shared":                 true,
		"postgres://u:p@localhost:5432/portal":     false,
		"host=localhost user=portal dbname=portal": false,
	}
	for dsn, want := range cases {
		if got := IsSQLiteDSN(dsn); got != want {
			t.Fatalf("IsSQLiteDSN(%q): expected %v, got %v", dsn, want, got)
		}
	}
}

func TestBuildSQLiteDSN(t *testing.T) {
	dsn := BuildSQLiteDSN("portal.db")
	if !strings.HasPrefix(dsn, "file:portal.db?") {
		t.Fatalf("expected file prefix, got %q", dsn)
	}
	if !strings.Contains(dsn, "_pragma=busy_timeout(5000)") {
		t.Fatalf("expected busy timeout pragma, got %q", dsn)
	}

	custom := "file:portal.db?_pragma=journal_mode(DELETE)"
	if got := BuildSQLiteDSN(custom); got != custom {
		t.Fatalf("expected custom pragmas to be kept, got %q", got)
	}
}

func TestMigrateSeedsSettingsAndBanIndex(t *testing.T) {
	conn, err := Open("file:" + filepath.Join(t.TempDir(), "portal-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	// Running twice must be harmless.
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("second migrate: %v", errMigrate)
	}

	var setting models.Setting
	if errFind := conn.Where("key = ?", internalsettings.RedeemRateLimitKey).First(&setting).Error; errFind != nil {
		t.Fatalf("find seeded setting: %v", errFind)
	}
	if strings.TrimSpace(string(setting.Value)) != "10" {
		t.Fatalf("expected seeded value 10, got %s", string(setting.Value))
	}

	first := models.UserBan{UserID: "u-1", Reason: "spam", IsActive: true}
	if errCreate := conn.Create(&first).Error; errCreate != nil {
		t.Fatalf("create ban: %v", errCreate)
	}
	second := models.UserBan{UserID: "u-1", Reason: "again", IsActive: true}
	errDup := conn.Create(&second).Error
	if errDup == nil {
		t.Fatalf("expected second active ban to violate index")
	}
	if !IsUniqueViolation(errDup) {
		t.Fatalf("expected unique violation, got %v", errDup)
	}

	if errUpdate := conn.Model(&models.UserBan{}).Where("user_id = ?", "u-1").Update("is_active", false).Error; errUpdate != nil {
		t.Fatalf("deactivate: %v", errUpdate)
	}
	third := models.UserBan{UserID: "u-1", Reason: "third", IsActive: true}
	if errCreate := conn.Create(&third).Error; errCreate != nil {
		t.Fatalf("expected new active ban after deactivation, got %v", errCreate)
	}
}

func TestMigrateReopenedDatabaseThenRefresh(t *testing.T) {
	t.Cleanup(func() { internalsettings.StoreDBConfig(time.Time{}, nil) })

	dsn := "file:" + filepath.Join(t.TempDir(), "restart.db")
	first, err := Open(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := Migrate(first); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	sqlDB, errDB := first.DB()
	if errDB != nil {
		t.Fatalf("sql db: %v", errDB)
	}
	if errClose := sqlDB.Close(); errClose != nil {
		t.Fatalf("close db: %v", errClose)
	}

	second, err := Open(dsn)
	if err != nil {
		t.Fatalf("reopen db: %v", err)
	}
	if errMigrate := Migrate(second); errMigrate != nil {
		t.Fatalf("migrate after reopen: %v", errMigrate)
	}

	var storage string
	if errType := second.Raw("SELECT typeof(value) FROM settings WHERE key = ?", internalsettings.RedeemRateLimitKey).
		Scan(&storage).Error; errType != nil {
		t.Fatalf("read storage class: %v", errType)
	}
	if storage != "text" {
		t.Fatalf("expected text storage class, got %q", storage)
	}

	if errRefresh := internalsettings.Refresh(context.Background(), second); errRefresh != nil {
		t.Fatalf("refresh: %v", errRefresh)
	}
	raw, ok := internalsettings.DBConfigValue(internalsettings.RedeemRateWindowSecondsKey)
	if !ok {
		t.Fatalf("expected seeded window in snapshot")
	}
	if seconds, okParse := internalsettings.ParsePositiveInt(raw); !okParse || seconds != internalsettings.DefaultRedeemRateWindowSeconds {
		t.Fatalf("expected default window, got %d", seconds)
	}
}

func TestSettingValueScansLegacyCells(t *testing.T) {
	cases := []struct {
		src  any
		want string
	}{
		{src: int64(10), want: "10"},
		{src: float64(2.5), want: "2.5"},
		{src: true, want: "true"},
		{src: []byte(`"Leet"`), want: `"Leet"`},
		{src: `{"a":1}`, want: `{"a":1}`},
	}
	for _, tc := range cases {
		var v models.SettingValue
		if errScan := v.Scan(tc.src); errScan != nil {
			t.Fatalf("scan %v: %v", tc.src, errScan)
		}
		if v.String() != tc.want {
			t.Fatalf("scan %v: expected %s, got %s", tc.src, tc.want, v.String())
		}
	}

	var empty models.SettingValue
	if errScan := empty.Scan(nil); errScan != nil {
		t.Fatalf("scan nil: %v", errScan)
	}
	if value, errValue := empty.Value(); errValue != nil || value != nil {
		t.Fatalf("expected nil driver value, got %v (%v)", value, errValue)
	}
}
