package cache_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/ems/cache"
)

func ExampleDeriveKey() {
	bare, _ := cache.DeriveKey("user/getAllUsers", nil)
	byID, _ := cache.DeriveKey("elections/getElectionById", "E1")
	query, _ := cache.DeriveKey("results/getResultsByElectionAndPollingUnit",
		map[string]string{"pollingUnitId": "P1", "electionId": "E1"})

	fmt.Println(bare)
	fmt.Println(byID)
	fmt.Println(query)
	// Output:
	// user/getAllUsers
	// elections/getElectionById::"E1"
	// results/getResultsByElectionAndPollingUnit::{"electionId":"E1","pollingUnitId":"P1"}
}

func ExampleOperation_Run() {
	elections := cache.NewFeature("elections", cache.DefaultPolicy())
	getByID := cache.MustDefine(elections, "getElectionById",
		func(_ context.Context, id string) (string, error) {
			return "Governorship 2023", nil
		})

	_, _ = getByID.Run(context.Background(), "E1")

	fmt.Println(getByID.SelectData("E1")(elections.Store()))
	fmt.Println(getByID.SelectLoading("E1")(elections.Store()))
	fmt.Printf("%q\n", getByID.SelectData("E2")(elections.Store()))
	// Output:
	// Governorship 2023
	// false
	// ""
}

func ExampleStore_Apply() {
	lgas := cache.NewFeature("lgas", cache.DefaultPolicy())
	createLGA := cache.MustDefine(lgas, "createLGA",
		func(_ context.Context, code string) (string, error) {
			return "", errors.New("duplicate code")
		})

	_, err := createLGA.Run(context.Background(), "IKJ")
	fmt.Println("call error:", err)

	key, _ := createLGA.Key("IKJ")
	entry := lgas.Store().Entry(key)
	fmt.Println("error:", entry.Error)
	fmt.Println("has data:", entry.HasData)
	// Output:
	// call error: duplicate code
	// error: duplicate code
	// has data: false
}
