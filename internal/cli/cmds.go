package cli

func regCommands() {
	//Blocks
	blockCmd.AddCommand(block_getCmd)
	blockCmd.AddCommand(block_latestCmd)
	blockCmd.AddCommand(block_watchCmd)
	blockCmd.AddCommand(block_txnsCmd)

	//Txns
	txnCmd.AddCommand(txn_getCmd)
	txnCmd.AddCommand(txn_byHashCmd)

	//Query
	queryCmd.AddCommand(query_blockCmd)
	queryCmd.AddCommand(query_txnCmd)

	//KV
	kvCmd.AddCommand(kv_insertCmd)
	kvCmd.AddCommand(kv_getCmd)
	kvCmd.AddCommand(kv_removeCmd)

	//Root
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(callCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(blockCmd)
	rootCmd.AddCommand(txnCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(kvCmd)
}
