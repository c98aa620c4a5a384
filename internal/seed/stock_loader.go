package seed

import (
	"encoding/csv"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"medistock/m/domain"
	"medistock/m/internal/store"
)

// LoadStock ingests a CSV stock catalog into the store under the given
// session, skipping malformed rows and rows whose batch and name the
// owner already stocks, so a restart does not duplicate the catalog.
// Expected columns:
// batch_no,name,manufacturer,category,mfg_date,exp_date,mrp,quantity,type
func LoadStock(st *store.Store, sess *store.Session, csvPath string) {
	file, err := os.Open(csvPath)
	if err != nil {
		log.Printf("unable to load stock catalog %s: %v", csvPath, err)
		return
	}
	defer file.Close()

	existing, err := st.GetMedicines(sess)
	if err != nil {
		log.Printf("unable to list existing stock: %v", err)
		return
	}
	seen := make(map[string]bool, len(existing))
	for _, m := range existing {
		seen[m.BatchNo+"\x00"+m.Name] = true
	}

	reader := csv.NewReader(file)
	// Skip header
	if _, err := reader.Read(); err != nil {
		log.Printf("unable to read stock header: %v", err)
		return
	}

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("unable to read stock row: %v", err)
			continue
		}
		if len(record) < 9 {
			continue
		}

		batchNo := strings.TrimSpace(record[0])
		name := strings.TrimSpace(record[1])
		if name == "" {
			continue
		}
		if seen[batchNo+"\x00"+name] {
			continue
		}
		mfgDate, err := time.Parse("2006-01-02", strings.TrimSpace(record[4]))
		if err != nil {
			log.Printf("skipping %s: bad mfg_date: %v", name, err)
			continue
		}
		expDate, err := time.Parse("2006-01-02", strings.TrimSpace(record[5]))
		if err != nil {
			log.Printf("skipping %s: bad exp_date: %v", name, err)
			continue
		}
		mrp, err := decimal.NewFromString(strings.TrimSpace(record[6]))
		if err != nil {
			log.Printf("skipping %s: bad mrp: %v", name, err)
			continue
		}
		quantity, err := strconv.ParseInt(strings.TrimSpace(record[7]), 10, 64)
		if err != nil {
			log.Printf("skipping %s: bad quantity: %v", name, err)
			continue
		}

		_, err = st.AddMedicine(sess, domain.Medicine{
			BatchNo:      batchNo,
			Name:         name,
			Manufacturer: strings.TrimSpace(record[2]),
			Category:     strings.TrimSpace(record[3]),
			MfgDate:      mfgDate,
			ExpDate:      expDate,
			BuyingDate:   time.Now().UTC(),
			MRP:          mrp,
			Quantity:     quantity,
			Type:         strings.TrimSpace(record[8]),
		})
		if err != nil {
			log.Printf("unable to add medicine %s: %v", name, err)
		} else {
			seen[batchNo+"\x00"+name] = true
			rows++
		}
	}

	log.Printf("seeded stock catalog with %d rows", rows)
}
