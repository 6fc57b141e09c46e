package main

import (
	"log"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"

	"github.com/lumifoundation/lumi-backend/chaincode/lumi-core/chaincode"
)

func main() {
	lumiChaincode, err := contractapi.NewChaincode(&chaincode.SmartContract{})
	if err != nil {
		log.Panicf("Error creating LUMI chaincode: %v", err)
	}

	if err := lumiChaincode.Start(); err != nil {
		log.Panicf("Error starting LUMI chaincode: %v", err)
	}
}
